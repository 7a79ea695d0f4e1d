package habit

import (
	"context"
	"errors"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
)

var ErrNotFound = errors.New("habit not found")

// Patch represents a partial habit update.
// nil pointer => "no change"
type Patch struct {
	Name   *string `json:"name,omitempty"`
	Emoji  *string `json:"emoji,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type ListFilter struct {
	UserID     string
	ActiveOnly bool
}

type Repo interface {
	Create(ctx context.Context, h Habit) (Habit, error)
	Get(ctx context.Context, id string) (Habit, error)
	Update(ctx context.Context, id string, p Patch) (Habit, error)
	List(ctx context.Context, filter ListFilter) ([]Habit, error)
}

// LogRepo stores completion records. Upsert is keyed on (HabitID, Day):
// an existing row is updated in place, never duplicated.
type LogRepo interface {
	Get(ctx context.Context, habitID string, day dates.DayKey) (Log, bool, error)
	Upsert(ctx context.Context, l Log) (Log, error)
	// ListByHabit returns logs for one habit with from <= Day <= to,
	// ordered by day ascending.
	ListByHabit(ctx context.Context, habitID string, from, to dates.DayKey) ([]Log, error)
	// ListCompletedByHabit returns every completed log for one habit,
	// ordered by day ascending.
	ListCompletedByHabit(ctx context.Context, habitID string) ([]Log, error)
	// ListByUser returns one user's logs across all habits with
	// from <= Day <= to, ordered by day ascending.
	ListByUser(ctx context.Context, userID string, from, to dates.DayKey) ([]Log, error)
}
