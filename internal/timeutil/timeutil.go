// Package timeutil parses the timestamp formats accepted on the command line.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/vodseek/vodseek/internal/domain"
)

var unixPattern = regexp.MustCompile(`^\d+$`)

// Layouts tried for non-unix, non-RFC3339 timestamps. All are read as UTC.
var layouts = []string{
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04",
}

// ParseTimestamp converts a user-supplied timestamp into unix seconds.
// Accepted forms: bare unix seconds, RFC 3339, "2006-01-02 15:04:05"
// with or without a trailing " UTC", and "02-01-2006 15:04".
func ParseTimestamp(s string) (int64, error) {
	if unixPattern.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse unix timestamp: %w", err)
		}
		return n, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, s)
}
