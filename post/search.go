package post

import (
	"regexp"
)

// Pattern is a compiled search text.
//
// The text is a case-insensitive regular expression.
// Text that doesn't compile is matched literally instead,
// so searching never fails.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles text into a Pattern. An empty text matches every post.
func CompilePattern(text string) Pattern {
	re, err := regexp.Compile("(?i)" + text)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))
	}

	return Pattern{re: re}
}

// Matches reports whether the author, title or content of p matches.
func (m Pattern) Matches(p Post) bool {
	return m.re.MatchString(p.Author) ||
		m.re.MatchString(p.Title) ||
		m.re.MatchString(p.Content)
}

func (m Pattern) String() string {
	return m.re.String()
}
