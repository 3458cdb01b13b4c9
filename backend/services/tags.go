package services

import "strings"

// TagLength is the fixed display-tag width shown on leaderboards.
const TagLength = 6

// SanitizeTag нормализует произвольный ввод к формату тега: только латинские
// буквы, верхний регистр, ровно TagLength символов с дополнением 'X'.
// Плохой ввод исправляется, а не отклоняется. Returns "" when the input has
// no letters at all, so the caller can fall back to a random tag.
func SanitizeTag(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		}
		if b.Len() == TagLength {
			break
		}
	}
	if b.Len() == 0 {
		return ""
	}
	tag := b.String()
	for len(tag) < TagLength {
		tag += "X"
	}
	return tag
}
