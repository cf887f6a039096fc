package extract

import "regexp"

// Tried in order; the first expression that matches anywhere wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d{1,2}(?:st|nd|rd|th)?\s+of\s+\w+\s+\d{4}`),
	regexp.MustCompile(`(?i)\w+\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`),
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{4}`),
}

// Date returns the first date-shaped substring of window, or "" if none.
func Date(window string) string {
	for _, re := range datePatterns {
		if m := re.FindString(window); m != "" {
			return m
		}
	}
	return ""
}
