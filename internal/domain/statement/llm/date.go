package llm

import (
	"regexp"
	"strings"
	"time"
)

var (
	slashDate   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	compactDate = regexp.MustCompile(`^\d{8}$`)
	dashDate    = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// NormalizeDate accepts exactly three literal date formats (DD/MM/YYYY,
// DDMMYYYY and DD-MM-YYYY, surrounding whitespace ignored) and validates
// calendar correctness. Anything else is rejected. The accepted value
// always formats back to DD/MM/YYYY.
func NormalizeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	var candidate string
	switch {
	case slashDate.MatchString(s):
		candidate = s
	case compactDate.MatchString(s):
		candidate = s[:2] + "/" + s[2:4] + "/" + s[4:]
	case dashDate.MatchString(s):
		candidate = s[:2] + "/" + s[3:5] + "/" + s[6:]
	default:
		return time.Time{}, false
	}

	t, err := time.Parse("02/01/2006", candidate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
