package interchange

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// maxSheetName is the sheet name limit of xlsx, counted in UTF-16 units.
const maxSheetName = 31

// sheetNames hands out sanitized, unique sheet names. Uniqueness is
// case-insensitive, like in spreadsheet applications.
type sheetNames struct {
	used map[string]bool
}

func newSheetNames(reserved ...string) *sheetNames {
	s := &sheetNames{used: make(map[string]bool)}
	for _, r := range reserved {
		s.used[strings.ToLower(r)] = true
	}
	return s
}

// next returns a sanitized variant of name not handed out before.
func (s *sheetNames) next(name string) string {
	base := SanitizeSheetName(name)
	candidate := base
	for i := 2; s.used[strings.ToLower(candidate)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		candidate = trimQuotes(truncateUTF16(base, maxSheetName-len(suffix))) + suffix
	}
	s.used[strings.ToLower(candidate)] = true
	return candidate
}

// SanitizeSheetName strips the characters xlsx forbids in sheet names
// (: \ / ? * [ ]), removes leading and trailing apostrophes and truncates
// to 31 UTF-16 units. A name left empty becomes "Feuille".
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		if r < ' ' {
			return -1
		}
		return r
	}, name)
	name = trimQuotes(strings.TrimSpace(name))
	name = trimQuotes(truncateUTF16(name, maxSheetName))
	if name == "" {
		return "Feuille"
	}
	return name
}

func trimQuotes(s string) string {
	for {
		t := strings.TrimSpace(strings.Trim(s, "'"))
		if t == s {
			return s
		}
		s = t
	}
}

// truncateUTF16 cuts s to at most n UTF-16 units without splitting a rune.
func truncateUTF16(s string, n int) string {
	units := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if units+w > n {
			return s[:i]
		}
		units += w
	}
	return s
}
