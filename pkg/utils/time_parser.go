package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for any time expression ParseTime cannot read.
var ErrInvalidFormat = errors.New("invalid time format")

const (
	clockLayout    = "15:4"
	dateTimeLayout = "15:4 2.1.2006"
)

const (
	maxYear         = 9999
	maxRelativeDays = 366 * maxYear
)

// ParseTime converts an operator-typed time expression into an absolute
// timestamp. Accepted forms:
//
//	+N           N minutes from now
//	+Nh          N hours from now
//	+Nd          N days from now
//	HH:MM        today at that time, or tomorrow if already passed
//	HH:MM D.M.Y  that exact moment, even in the past
//
// Absolute forms are interpreted in now's location. Relative forms may reach
// as far as year 9999.
func ParseTime(raw string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseRelative(rest, now)
	}

	if strings.Contains(s, " ") {
		t, err := time.ParseInLocation(dateTimeLayout, s, now.Location())
		if err != nil {
			return time.Time{}, ErrInvalidFormat
		}
		return t, nil
	}

	clock, err := time.ParseInLocation(clockLayout, s, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !scheduled.After(now) {
		scheduled = scheduled.AddDate(0, 0, 1)
	}
	return scheduled, nil
}

func parseRelative(s string, now time.Time) (time.Time, error) {
	unit, perDay := time.Minute, int64(24*60)
	switch {
	case strings.HasSuffix(s, "h"):
		unit, perDay = time.Hour, 24
		s = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "d"):
		unit, perDay = 24*time.Hour, 1
		s = strings.TrimSuffix(s, "d")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return time.Time{}, ErrInvalidFormat
	}

	days, rest := n/perDay, n%perDay
	if days > maxRelativeDays {
		return time.Time{}, ErrInvalidFormat
	}

	// Whole days are added on the UTC calendar, where a day is always 24h.
	t := now.UTC().AddDate(0, 0, int(days)).Add(time.Duration(rest) * unit).In(now.Location())
	if t.Year() > maxYear {
		return time.Time{}, ErrInvalidFormat
	}
	return t, nil
}
