package user

import (
	"context"
	"errors"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Patch represents a partial profile update.
// nil pointer => "no change"
type Patch struct {
	Name   *string `json:"name,omitempty"`
	Public *bool   `json:"public,omitempty"`
}

type Repo interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, id string, p Patch) (User, error)
	// SetXP persists the XP total together with its derived level.
	// The level is recomputed on every write, never advanced on its own.
	SetXP(ctx context.Context, id string, xp, level int) error
	// List returns all users ordered by XP descending, then level
	// descending (leaderboard order).
	List(ctx context.Context) ([]User, error)

	GetProgress(ctx context.Context, userID string) (Progress, error)
	SetLastLogin(ctx context.Context, userID string, day dates.DayKey) error
	SetBestStreak(ctx context.Context, userID string, streak int) error
}
