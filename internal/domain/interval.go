package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var intervalPattern = regexp.MustCompile(`^\s*(\d+)\s*(minute|hour|day)s?\s*$`)

// ParseInterval converts a human-readable SLA interval such as "30 minutes",
// "24 hours" or "2 days" into a duration. This is the single parser for every
// persisted interval string; unrecognized units are a configuration error,
// never a silent zero.
func ParseInterval(s string) (time.Duration, error) {
	m := intervalPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, fmt.Errorf("invalid interval %q: expected \"<n> minutes|hours|days\"", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	switch m[2] {
	case "minute":
		return time.Duration(n) * time.Minute, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	default:
		return time.Duration(n) * 24 * time.Hour, nil
	}
}
