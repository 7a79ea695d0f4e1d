package habit

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
)

type Kind string

const (
	KindGood Kind = "GOOD"
	KindBad  Kind = "BAD"
)

type Cadence string

const (
	CadenceDaily  Cadence = "DAILY"
	CadenceWeekly Cadence = "WEEKLY"
)

const maxNameLen = 50

var (
	ErrInvalidName    = errors.New("habit name must be 1-50 characters")
	ErrInvalidEmoji   = errors.New("habit emoji is required")
	ErrInvalidKind    = errors.New("habit kind must be GOOD or BAD")
	ErrInvalidCadence = errors.New("habit cadence must be DAILY or WEEKLY")
)

type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Kind      Kind      `json:"kind"`
	Cadence   Cadence   `json:"cadence"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Log is one completion record for a habit on a calendar day. At most one
// log exists per (habit, day); toggling updates in place. Completed=false
// is distinct from "no log" for catch-up bookkeeping, but both read as
// not-completed.
type Log struct {
	ID        string       `json:"id"`
	HabitID   string       `json:"habitId"`
	UserID    string       `json:"userId"`
	Day       dates.DayKey `json:"day"`
	Completed bool         `json:"completed"`
}

func (k Kind) Valid() bool {
	return k == KindGood || k == KindBad
}

func (c Cadence) Valid() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

// Validate checks the user-supplied fields of a habit.
func (h Habit) Validate() error {
	name := strings.TrimSpace(h.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return ErrInvalidName
	}
	if strings.TrimSpace(h.Emoji) == "" {
		return ErrInvalidEmoji
	}
	if !h.Kind.Valid() {
		return ErrInvalidKind
	}
	if !h.Cadence.Valid() {
		return ErrInvalidCadence
	}
	return nil
}
