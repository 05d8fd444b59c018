package xstrings

// TruncateChars bounds s to at most max characters. Truncation counts
// runes, not bytes, so multi-byte text is never cut mid-character.
func TruncateChars(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// TruncateWithNotice bounds s to max characters and appends notice
// when something was actually cut off.
func TruncateWithNotice(s string, max int, notice string) string {
	if max <= 0 {
		return notice
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + notice
}

// Unique returns s with duplicates removed, keeping first occurrences
// in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]bool, len(s))
	list := []T{}
	for _, entry := range s {
		if !seen[entry] {
			seen[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
