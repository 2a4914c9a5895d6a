package roadmap

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	hoursPerDay   = 8
	hoursPerWeek  = 40
	hoursPerMonth = 160
)

var durationRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:(?:-|to)\s*(\d+(?:\.\d+)?)\s*)?(hours?|hrs?|h|days?|d|weeks?|wks?|w|months?|mo)\b`)

// parseHours converts free-text durations ("6 hours", "2-3 days", "1 week") into study hours.
// Ranges use their midpoint. Unparseable input yields 0.
func parseHours(s string) int {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] != "" {
		if hi, err := strconv.ParseFloat(m[2], 64); err == nil && hi > n {
			n = (n + hi) / 2
		}
	}
	unit := strings.ToLower(m[3])
	switch {
	case strings.HasPrefix(unit, "mo"):
		n *= hoursPerMonth
	case strings.HasPrefix(unit, "w"):
		n *= hoursPerWeek
	case strings.HasPrefix(unit, "d"):
		n *= hoursPerDay
	}
	return int(math.Round(n))
}
