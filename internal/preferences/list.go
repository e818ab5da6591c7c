package preferences

import "strings"

// SplitList splits a comma-joined field into trimmed entries, dropping blanks
// and later duplicates. Order is preserved.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = appendUnique(out, strings.TrimSpace(p))
	}
	return out
}

// JoinList is the inverse of SplitList for well-formed input.
func JoinList(list []string) string {
	return strings.Join(list, ", ")
}

func indexOf(list []string, item string) int {
	for i, v := range list {
		if strings.EqualFold(v, item) {
			return i
		}
	}
	return -1
}

func contains(list []string, item string) bool {
	return indexOf(list, item) >= 0
}

func appendUnique(list []string, item string) []string {
	if item == "" || contains(list, item) {
		return list
	}
	return append(list, item)
}

func without(list []string, item string) []string {
	i := indexOf(list, item)
	if i < 0 {
		return list
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
