package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetName is the longest sheet name a workbook accepts.
const MaxSheetName = 31

// Sheet is one output table. Cells hold string, int64, float64 or nil (empty).
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// SheetNames maps country values to unique, workbook-safe sheet names,
// preserving order.
func SheetNames(countries []string) []string {
	names := make([]string, len(countries))
	used := make(map[string]bool, len(countries))
	for i, c := range countries {
		base := sanitizeSheetName(c)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, MaxSheetName-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func sanitizeSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "'")
	if strings.TrimSpace(s) == "" {
		s = "Unknown"
	}
	return truncateRunes(s, MaxSheetName)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
