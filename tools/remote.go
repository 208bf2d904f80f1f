package tools

import (
	"slices"
	"strings"
)

// FromInputSchema builds the descriptor of a remote tool from its JSON input schema.
// Parameters listed in "required" come first in that order,
// the remaining properties follow sorted by name.
func FromInputSchema(name, description string, inputSchema map[string]any) ToolDescriptor {
	d := ToolDescriptor{
		Name:        name,
		Description: description,
		Parameters:  []ParameterSpec{},
	}

	props, _ := inputSchema["properties"].(map[string]any)
	required := stringList(inputSchema["required"])

	seen := make(map[string]bool, len(props))
	for _, n := range required {
		if seen[n] {
			continue
		}
		seen[n] = true
		p, _ := props[n].(map[string]any)
		d.Parameters = append(d.Parameters, remoteParam(n, p, true))
	}

	var rest []string
	for n := range props {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	slices.Sort(rest)
	for _, n := range rest {
		p, _ := props[n].(map[string]any)
		d.Parameters = append(d.Parameters, remoteParam(n, p, false))
	}
	return d
}

func remoteParam(name string, prop map[string]any, required bool) ParameterSpec {
	typ, items := ParseHint(remoteHint(prop))
	if typ == TypeArray {
		if it, ok := prop["items"].(map[string]any); ok {
			items, _ = ParseHint(remoteHint(it))
		}
	}

	spec := ParameterSpec{
		Name:     name,
		Type:     typ,
		Items:    items,
		Required: required,
	}
	spec.Description, _ = prop["description"].(string)
	if !required {
		spec.Default = prop["default"]
	}
	return spec
}

// remoteHint returns the type of a property schema as a hint,
// unions of types are joined with "|".
func remoteHint(prop map[string]any) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []any:
		return strings.Join(stringList(t), "|")
	}

	for _, key := range []string{"anyOf", "oneOf"} {
		if list, ok := prop[key].([]any); ok {
			var parts []string
			for _, alt := range list {
				if m, ok := alt.(map[string]any); ok {
					if h := remoteHint(m); h != "" {
						parts = append(parts, h)
					}
				}
			}
			return strings.Join(parts, "|")
		}
	}
	return ""
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		res := make([]string, 0, len(l))
		for _, s := range l {
			if str, ok := s.(string); ok {
				res = append(res, str)
			}
		}
		return res
	}
	return nil
}
