package flows

import (
	"regexp"
	"strconv"
	"strings"
)

var secondsPattern = regexp.MustCompile(`(\d+)\s*second`)

var lockoutKeywords = []string{
	"locked",
	"lockout",
	"too many attempts",
	"rate limit",
	"try again later",
}

// LockoutSeconds derives a lockout window from a failed verification.
// A structured retry-after value from the error envelope is always preferred;
// parsing the free-text message for an "N seconds" pattern or lockout
// keywords is the fallback for backends that predate the structured field.
// fallback is used when a lockout is recognized but no duration is parseable.
// The second return reports whether a lockout was detected at all.
func LockoutSeconds(retryAfter int, message string, fallback int) (int, bool) {
	if retryAfter > 0 {
		return retryAfter, true
	}
	lower := strings.ToLower(message)
	if m := secondsPattern.FindStringSubmatch(lower); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			return secs, true
		}
	}
	for _, kw := range lockoutKeywords {
		if strings.Contains(lower, kw) {
			return fallback, true
		}
	}
	return 0, false
}
