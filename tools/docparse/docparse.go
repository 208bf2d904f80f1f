// Package docparse extracts a summary and per-parameter descriptions
// from free-form tool documentation.
//
// The grammar is deliberately small:
//
//	Summary text, possibly wrapped
//	over several lines.
//
//	Args:
//	    name: description
//	    other (int): description that
//	        continues on an indented line
//
//	Returns:
//	    description of the result
//
// Numpy-style underlined headers, reST ":param name:" fields and
// "- name: text" bullets are accepted as well. Parsing never fails:
// anything that is not understood is ignored.
package docparse

import (
	"regexp"
	"slices"
	"strings"
)

// Doc is the parsed documentation block.
type Doc struct {
	// Summary is the first paragraph, joined into a single line.
	Summary string
	// Params maps parameter name to its description.
	Params map[string]string
	// Returns describes the result, if documented.
	Returns string
}

// Param returns the description of the named parameter,
// or an empty string.
func (d Doc) Param(name string) string {
	if d.Params == nil {
		return ""
	}
	return d.Params[name]
}

type section int

const (
	sectionSummary section = iota
	sectionBody
	sectionParams
	sectionReturns
	sectionOther
)

var (
	paramHeaders   = []string{"args", "arguments", "parameters", "params", "inputs", "keyword args", "keyword arguments"}
	returnsHeaders = []string{"returns", "return", "yields"}

	// Word: or Two Words: at the start of a line
	reHeader    = regexp.MustCompile(`^([A-Za-z][A-Za-z ]{0,30}):\s*$`)
	reUnderline = regexp.MustCompile(`^[-=~]{3,}\s*$`)
	reRestParam = regexp.MustCompile(`^:param\s+(?:[^:\s]+\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)
	reRestOther = regexp.MustCompile(`^:(returns?|rtype|raises?|type)\b[^:]*:\s*(.*)$`)

	// name: text | name (type): text | name -- text | name - text
	reParam = regexp.MustCompile(`^(?:[-*]\s+)?\*{0,2}([A-Za-z_][A-Za-z0-9_]*)\*{0,2}\s*(?:\([^)]*\)|\[[^\]]*\])?\s*(?::|--|-)\s*(.*)$`)
	// numpy: "name : type" on its own line, description indented below
	reNumpyParam = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\s*:.*)?$`)
)

// Parse parses doc. Missing pieces are returned as empty strings.
func Parse(doc string) Doc {
	res := Doc{Params: map[string]string{}}

	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	lines = dedent(lines)

	var (
		summary  []string
		returns  []string
		current  = sectionSummary
		lastName string
		baseInd  = -1
		numpy    bool
	)

	appendParam := func(name, text string) {
		text = strings.TrimSpace(text)
		if prev, ok := res.Params[name]; ok && prev != "" {
			if text != "" {
				res.Params[name] = prev + " " + text
			}
			return
		}
		res.Params[name] = text
	}

	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		line := strings.TrimSpace(raw)
		ind := indent(raw)

		// reST fields are accepted anywhere
		if m := reRestParam.FindStringSubmatch(line); m != nil {
			current = sectionParams
			lastName = m[1]
			baseInd = ind
			appendParam(m[1], m[2])
			continue
		}
		if m := reRestOther.FindStringSubmatch(line); m != nil {
			lastName = ""
			if strings.HasPrefix(m[1], "return") {
				current = sectionReturns
				returns = append(returns, m[2])
			} else {
				current = sectionOther
			}
			continue
		}

		if line == "" {
			if current == sectionSummary && len(summary) > 0 {
				current = sectionBody
			}
			continue
		}

		if h, ok := header(line, ind, current, lines, i); ok {
			numpy = false
			if reUnderline.MatchString(strings.TrimSpace(next(lines, i))) {
				numpy = true
				i++
			}
			lastName = ""
			baseInd = -1
			switch {
			case slices.Contains(paramHeaders, h):
				current = sectionParams
			case slices.Contains(returnsHeaders, h):
				current = sectionReturns
			default:
				current = sectionOther
			}
			continue
		}

		switch current {
		case sectionSummary:
			summary = append(summary, line)

		case sectionParams:
			if baseInd < 0 {
				baseInd = ind
			}
			// continuation of the previous entry
			if lastName != "" && ind > baseInd {
				appendParam(lastName, line)
				continue
			}
			if numpy {
				if m := reNumpyParam.FindStringSubmatch(line); m != nil {
					lastName = m[1]
					baseInd = ind
					appendParam(m[1], "")
					continue
				}
			} else if m := reParam.FindStringSubmatch(line); m != nil {
				lastName = m[1]
				baseInd = ind
				appendParam(m[1], m[2])
				continue
			}
			lastName = ""

		case sectionReturns:
			returns = append(returns, line)
		}
	}

	res.Summary = strings.Join(summary, " ")
	res.Returns = strings.TrimSpace(strings.Join(returns, " "))
	return res
}

// header reports whether line opens a section, and its lowercased name.
// Known headers are recognized anywhere; other capitalized "Word:" lines
// only end a section when they are flush and follow the summary.
func header(line string, ind int, current section, lines []string, i int) (string, bool) {
	name := ""
	if m := reHeader.FindStringSubmatch(line); m != nil {
		name = strings.ToLower(strings.TrimSpace(m[1]))
	} else if reUnderline.MatchString(strings.TrimSpace(next(lines, i))) && !strings.ContainsAny(line, ":.,") {
		name = strings.ToLower(line)
	} else {
		return "", false
	}

	if slices.Contains(paramHeaders, name) || slices.Contains(returnsHeaders, name) {
		return name, true
	}
	if current != sectionSummary && ind == 0 && line[0] >= 'A' && line[0] <= 'Z' {
		return name, true
	}
	return "", false
}

func next(lines []string, i int) string {
	if i+1 < len(lines) {
		return lines[i+1]
	}
	return ""
}

func indent(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// dedent removes the common leading indentation of all
// lines except the first one, which is usually flush.
func dedent(lines []string) []string {
	minInd := -1
	for i, l := range lines {
		if i == 0 || strings.TrimSpace(l) == "" {
			continue
		}
		if ind := indent(l); minInd < 0 || ind < minInd {
			minInd = ind
		}
	}
	if minInd <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		switch {
		case i == 0:
			out[i] = strings.TrimLeft(l, " \t")
		case strings.TrimSpace(l) == "":
			out[i] = ""
		default:
			out[i] = trimIndent(l, minInd)
		}
	}
	return out
}

func trimIndent(s string, n int) string {
	i := 0
	for i < len(s) && n > 0 {
		switch s[i] {
		case ' ':
			n--
		case '\t':
			n -= 4
		default:
			return s[i:]
		}
		i++
	}
	return s[i:]
}
