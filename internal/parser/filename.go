package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxSubjectLength = 120

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/:*?"<>|#]+`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

// BuildFileName produces a deterministic PDF filename for an exported
// message: date plus order number when the body carries one, otherwise date
// plus the sanitized subject.
func BuildFileName(subject, body string, date time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	day := date.In(loc).Format("2006-01-02")

	if num := ExtractOrderNumber(body); num != OrderNumberNotFound {
		return fmt.Sprintf("%s - Amazon Order %s.pdf", day, num)
	}

	if subject == "" {
		subject = "No Subject"
	}
	return fmt.Sprintf("%s - %s.pdf", day, CleanSubject(subject))
}

// CleanSubject strips characters that are illegal in filenames, collapses
// whitespace runs, trims, and caps the result at 120 characters.
func CleanSubject(subject string) string {
	s := illegalFilenameChars.ReplaceAllString(subject, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxSubjectLength {
		s = string(runes[:maxSubjectLength])
	}
	return s
}
