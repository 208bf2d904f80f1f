package tools

import (
	"strings"
)

var scalarHints = map[string]SemanticType{
	"string":            TypeString,
	"str":               TypeString,
	"text":              TypeString,
	"bytes":             TypeString,
	"[]byte":            TypeString,
	"time.time":         TypeString,
	"datetime":          TypeString,
	"datetime.datetime": TypeString,
	"date":              TypeString,
	"datetime.date":     TypeString,
	"uuid":              TypeString,
	"uuid.uuid":         TypeString,

	"number":      TypeNumber,
	"float":       TypeNumber,
	"float32":     TypeNumber,
	"float64":     TypeNumber,
	"double":      TypeNumber,
	"decimal":     TypeNumber,
	"json.number": TypeNumber,

	"integer": TypeInteger,
	"int":     TypeInteger,
	"int8":    TypeInteger,
	"int16":   TypeInteger,
	"int32":   TypeInteger,
	"int64":   TypeInteger,
	"uint":    TypeInteger,
	"uint8":   TypeInteger,
	"uint16":  TypeInteger,
	"uint32":  TypeInteger,
	"uint64":  TypeInteger,
	"long":    TypeInteger,

	"boolean": TypeBoolean,
	"bool":    TypeBoolean,

	"array":     TypeArray,
	"list":      TypeArray,
	"tuple":     TypeArray,
	"set":       TypeArray,
	"frozenset": TypeArray,
	"sequence":  TypeArray,
	"iterable":  TypeArray,
	"slice":     TypeArray,

	"object":  TypeObject,
	"dict":    TypeObject,
	"map":     TypeObject,
	"mapping": TypeObject,
	"struct":  TypeObject,

	"any":         TypeAny,
	"interface{}": TypeAny,
}

var nullHints = map[string]bool{
	"none": true,
	"null": true,
	"nil":  true,
}

// ParseHint maps a type annotation to its semantic type, and for arrays
// to the element type when it is known. Annotations that do not map to
// a supported type yield TypeAny, this is never an error.
func ParseHint(hint string) (typ SemanticType, items SemanticType) {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.TrimPrefix(h, "typing.")
	if h == "" {
		return TypeAny, ""
	}

	if t, ok := scalarHints[h]; ok {
		return t, ""
	}

	// optional forms resolve to the wrapped type
	switch {
	case strings.HasPrefix(h, "*"):
		return ParseHint(h[1:])
	case strings.HasSuffix(h, "?"):
		return ParseHint(h[:len(h)-1])
	}

	if parts := splitTop(h, '|'); len(parts) > 1 {
		return parseUnion(parts)
	}

	// Go slices and arrays: []T, [N]T
	if strings.HasPrefix(h, "[") {
		if end := strings.IndexByte(h, ']'); end > 0 {
			it, _ := ParseHint(h[end+1:])
			return TypeArray, it
		}
		return TypeAny, ""
	}
	if strings.HasPrefix(h, "map[") {
		return TypeObject, ""
	}

	base, args, ok := splitGeneric(h)
	if !ok {
		return TypeAny, ""
	}
	switch base {
	case "optional":
		return ParseHint(args)
	case "union":
		return parseUnion(splitTop(args, ','))
	case "dict", "mapping", "map":
		return TypeObject, ""
	case "list", "sequence", "iterable", "set", "frozenset", "array":
		it, _ := ParseHint(args)
		return TypeArray, it
	case "tuple":
		var it SemanticType
		for i, a := range splitTop(args, ',') {
			if strings.TrimSpace(a) == "..." {
				continue
			}
			at, _ := ParseHint(a)
			if i > 0 && at != it {
				return TypeArray, TypeAny
			}
			it = at
		}
		return TypeArray, it
	}

	if t, ok := scalarHints[base]; ok {
		return t, ""
	}
	return TypeAny, ""
}

// isVariadicHint reports annotations of variadic parameters,
// like ...int or **kwargs, which cannot be described as a single property.
func isVariadicHint(hint string) bool {
	h := strings.TrimSpace(hint)
	return strings.HasPrefix(h, "...") ||
		strings.HasPrefix(h, "*args") ||
		strings.HasPrefix(h, "**")
}

func parseUnion(parts []string) (SemanticType, SemanticType) {
	var (
		typ   SemanticType
		items SemanticType
		found bool
	)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if nullHints[p] {
			continue
		}
		t, it := ParseHint(p)
		if found && (t != typ || it != items) {
			return TypeAny, ""
		}
		typ, items, found = t, it, true
	}
	if !found {
		return TypeAny, ""
	}
	return typ, items
}

// splitGeneric splits "list[int]" into "list" and "int".
func splitGeneric(h string) (string, string, bool) {
	open := strings.IndexByte(h, '[')
	if open <= 0 || !strings.HasSuffix(h, "]") {
		return h, "", true
	}
	return strings.TrimSpace(h[:open]), h[open+1 : len(h)-1], true
}

// splitTop splits s by sep, ignoring separators nested in brackets.
func splitTop(s string, sep byte) []string {
	var (
		res   []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case sep:
			if depth == 0 {
				res = append(res, s[start:i])
				start = i + 1
			}
		}
	}
	return append(res, s[start:])
}
