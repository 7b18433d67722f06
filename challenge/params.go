package challenge

import "strings"

type param struct {
	name     string
	value    string
	hasValue bool
}

// parseParams splits s into name[=value] pairs separated by sep.
// Separators inside double quotes do not split, a backslash protects the
// following quote, and one pair of surrounding quotes is stripped from the
// value. Escapes are kept verbatim.
func parseParams(s string, sep byte) []param {
	var params []param
	pos := 0
	for pos < len(s) {
		start := pos
		for pos < len(s) && s[pos] != '=' && s[pos] != sep {
			pos++
		}
		p := param{name: strings.TrimSpace(s[start:pos])}

		if pos < len(s) && s[pos] == '=' {
			pos++
			start = pos
			quoted, escaped := false, false
			for pos < len(s) {
				c := s[pos]
				if !quoted && c == sep {
					break
				}
				if !escaped && c == '"' {
					quoted = !quoted
				}
				escaped = !escaped && c == '\\'
				pos++
			}
			p.value = unquote(strings.TrimSpace(s[start:pos]))
			p.hasValue = true
		}

		if pos < len(s) && s[pos] == sep {
			pos++
		}
		if p.name == "" && !p.hasValue {
			continue
		}
		params = append(params, p)
	}
	return params
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
