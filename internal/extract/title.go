package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	titleMinLength = 20
	titleMaxLength = 200
)

var navigationPrefix = regexp.MustCompile(`(?i)^(home|menu|search|filter)`)

// Title returns the first line of window that looks like a publication title.
// A line qualifies when, once trimmed, it is strictly between 20 and 200
// characters long and does not start with a navigation label.
func Title(window string) string {
	for _, line := range strings.Split(window, "\n") {
		cleaned := strings.TrimSpace(line)
		n := utf8.RuneCountInString(cleaned)
		if n <= titleMinLength || n >= titleMaxLength {
			continue
		}
		if navigationPrefix.MatchString(cleaned) {
			continue
		}
		return cleaned
	}
	return ""
}
