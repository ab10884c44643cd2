package slug

import (
	"regexp"
	"strings"
)

// whitespace mirrors the ECMAScript \s class so ids derived here match the
// directory names the existing blog data was written with.
const whitespace = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	whitespaceRun = regexp.MustCompile(`[` + whitespace + `]+`)
	invalidChars  = regexp.MustCompile(`[^\w-]+`)
)

// Derive maps a post title to its directory-safe identifier.
// The result may be empty; callers must treat "" as an unusable id.
func Derive(title string) string {
	s := strings.TrimFunc(title, isSpace)
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, "_")
	return invalidChars.ReplaceAllString(s, "")
}

// Valid reports whether id could have been produced by Derive.
func Valid(id string) bool {
	return id != "" && Derive(id) == id
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
