package config

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultRefreshTokenExpiry is used when the configured lifetime cannot be parsed.
const DefaultRefreshTokenExpiry = 7 * 24 * time.Hour

var durationPattern = regexp.MustCompile(`^(\d+)\s*(ms|s|m|h|d|w)$`)

// ParseDuration converts lifetimes such as "7d", "24h", "30m", "3600s" or a
// bare "3600" (seconds) into a time.Duration. Anything else, including zero,
// falls back to seven days.
func ParseDuration(s string) time.Duration {
	return ParseDurationOr(s, DefaultRefreshTokenExpiry)
}

// ParseDurationOr is ParseDuration with a caller supplied fallback.
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scale(n, time.Second, fallback)
	}

	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fallback
	}

	var unit time.Duration
	switch m[2] {
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}
	return scale(n, unit, fallback)
}

// scale returns n units, or fallback when n is not positive or the product
// does not fit in a time.Duration.
func scale(n int64, unit, fallback time.Duration) time.Duration {
	if n <= 0 || n > math.MaxInt64/int64(unit) {
		return fallback
	}
	return time.Duration(n) * unit
}
