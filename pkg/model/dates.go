package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for report labels.
const DateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTime accepts an RFC 3339 timestamp, a local date-time or a bare date.
// Values without an explicit offset are interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected YYYY-MM-DD or RFC 3339)", value)
}
