package textutil

import (
	"strings"
	"unicode"
)

func allowedRune(r rune) bool {
	switch {
	case r >= 'ぁ' && r <= 'ん':
		return true
	case r >= 'ァ' && r <= 'ヶ':
		return true
	case r == 'ー' || r == '々':
		return true
	case r >= '一' && r <= '龠':
		return true
	}
	return false
}

// NormalizeName keeps only hiragana, katakana, the long vowel mark, CJK
// ideographs and the iteration mark. The result is used for grouping and
// display, never for matching.
func NormalizeName(name string) string {
	var out strings.Builder
	out.Grow(len(name))
	for _, r := range name {
		if allowedRune(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// TrimKey trims leading and trailing whitespace (including ideographic spaces
// and byte order marks) to produce the exact-match key of a name.
func TrimKey(name string) string {
	return strings.TrimFunc(name, isTrimmable)
}
