package event

import (
	"strings"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

// DateLayout is how event dates are stored and returned. Dates carry no zone.
const DateLayout = "2006-01-02T15:04:05"

var inputLayouts = []string{
	DateLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 or a naive timestamp. An offset, if present, is
// dropped and the wall clock kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errs.Invalid("date", "is required")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return wallClock(t), nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, errs.Invalid("date", "must be YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS] or RFC 3339")
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day is the calendar day part of a stored date, e.g. "2025-03-03".
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// Slugify lowercases s and collapses every run of characters outside a-z0-9
// into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
