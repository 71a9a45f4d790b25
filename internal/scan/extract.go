package scan

import "strings"

// FirstJSONArray locates the first balanced top-level JSON array literal in
// free-form text. Model output may wrap the array in prose or code fences;
// this performs a best-effort structured extraction with a clear contract:
// the first balanced candidate that plausibly starts a JSON array, or none.
func FirstJSONArray(text string) (string, bool) {
	for from := 0; from < len(text); {
		start := strings.IndexByte(text[from:], '[')
		if start < 0 {
			return "", false
		}
		start += from

		if !looksLikeJSONArray(text[start:]) {
			from = start + 1
			continue
		}

		end, ok := balanceArray(text, start)
		if !ok {
			return "", false
		}
		return text[start : end+1], true
	}
	return "", false
}

// looksLikeJSONArray checks that the first non-space byte after '[' could
// begin a JSON value. Filters out prose brackets such as "[sic]".
func looksLikeJSONArray(s string) bool {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[', '"', ']', '-', 't', 'f', 'n':
			return true
		default:
			return s[i] >= '0' && s[i] <= '9'
		}
	}
	return false
}

// balanceArray scans from the opening '[' at start, tracking bracket and
// brace depth and string literals, and returns the index of the matching ']'.
func balanceArray(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i, c == ']'
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}
