// Package dates normalizes timestamps to calendar-day keys.
//
// Every timestamp in the system is collapsed to a DayKey through ToDayKey,
// which truncates in UTC. Mixing local-time and UTC truncation makes logs
// land on the wrong day near midnight, so all call sites must go through
// this package.
package dates

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// DayKey is a calendar day in YYYY-MM-DD form. Keys compare
// chronologically with plain string ordering.
type DayKey string

func ToDayKey(t time.Time) DayKey {
	return DayKey(t.UTC().Format(layout))
}

func Parse(s string) (DayKey, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return ToDayKey(t), nil
}

// Time returns midnight UTC of the day.
func (d DayKey) Time() time.Time {
	t, err := time.Parse(layout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d DayKey) IsZero() bool {
	return d == ""
}

func (d DayKey) AddDays(n int) DayKey {
	return ToDayKey(d.Time().AddDate(0, 0, n))
}

// Sub returns the whole-day difference a-b.
func Sub(a, b DayKey) int {
	return int(a.Time().Sub(b.Time()) / (24 * time.Hour))
}

// StartOfWeek returns the Monday of the week containing d.
// time.Weekday numbers Sunday as 0, so Sunday maps to offset 6.
func StartOfWeek(d DayKey) DayKey {
	offset := (int(d.Time().Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// EndOfWeek returns the Sunday of the week containing d.
func EndOfWeek(d DayKey) DayKey {
	return StartOfWeek(d).AddDays(6)
}
