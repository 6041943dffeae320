package utils

import (
	"strings"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
)

const DateKeyLayout = "2006-01-02"

// LoadLocation falls back to the configured default timezone, then UTC.
func LoadLocation(timezone string) *time.Location {
	if timezone = strings.TrimSpace(timezone); timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(config.GetSettings().Locale.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// ParseDateKey parses a YYYY-MM-DD key as the start of that day in loc.
func ParseDateKey(dateKey string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateKeyLayout, strings.TrimSpace(dateKey), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

func IsValidDateKey(dateKey string) bool {
	_, err := ParseDateKey(dateKey, time.UTC)
	return err == nil
}

// DateKey formats t as the local calendar day in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// StartOfDay truncates t to local midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// DayRange returns [start of from, start of the day after to) for two date keys.
func DayRange(fromKey string, toKey string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := ParseDateKey(fromKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDateKey(toKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to.AddDate(0, 0, 1), nil
}
