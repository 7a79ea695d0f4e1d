package engine

import (
	"context"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
)

// MissedHabit is one entry of the catch-up prompt list.
type MissedHabit struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Emoji   string        `json:"emoji"`
	Kind    habit.Kind    `json:"kind"`
	Cadence habit.Cadence `json:"cadence"`
}

// ShouldPromptCatchUp reports whether the catch-up prompt should fire.
// It returns true only when the stored last-login day is exactly
// yesterday; a zero gap means we already checked today, a longer gap is
// deliberately not offered for backfill. The check always advances the
// stored day to today, so the prompt fires at most once per day
// regardless of outcome.
func (e *Engine) ShouldPromptCatchUp(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}

	today := e.Today()
	p, err := e.Users.GetProgress(ctx, userID)
	if err != nil {
		return false, &PersistError{Op: "load progress", Err: err}
	}
	if err := e.Users.SetLastLogin(ctx, userID, today); err != nil {
		return false, &PersistError{Op: "save last login", Err: err}
	}

	return !p.LastLoginDate.IsZero() && p.LastLoginDate == today.AddDays(-1), nil
}

// MissedHabits lists active habits with no completed log yesterday
// (daily) or no completed log anywhere in the current week (weekly). An
// explicit completed=false log counts the same as no log at all.
func (e *Engine) MissedHabits(ctx context.Context, userID string) ([]MissedHabit, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	today := e.Today()
	yesterday := today.AddDays(-1)

	habits, err := e.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return nil, &PersistError{Op: "list habits", Err: err}
	}

	missed := make([]MissedHabit, 0, len(habits))
	for _, h := range habits {
		var done bool
		switch h.Cadence {
		case habit.CadenceWeekly:
			weekLogs, err := e.Logs.ListByHabit(ctx, h.ID, dates.StartOfWeek(today), dates.EndOfWeek(today))
			if err != nil {
				return nil, &PersistError{Op: "list week logs", Err: err}
			}
			for _, l := range weekLogs {
				if l.Completed {
					done = true
					break
				}
			}
		default:
			l, ok, err := e.Logs.Get(ctx, h.ID, yesterday)
			if err != nil {
				return nil, &PersistError{Op: "load log", Err: err}
			}
			done = ok && l.Completed
		}
		if !done {
			missed = append(missed, MissedHabit{
				ID:      h.ID,
				Name:    h.Name,
				Emoji:   h.Emoji,
				Kind:    h.Kind,
				Cadence: h.Cadence,
			})
		}
	}
	return missed, nil
}

// CatchUp retroactively completes yesterday's entry for a habit. It
// behaves exactly like a toggle for the past day, including the XP award,
// but never un-completes: catching up an already-completed habit is a
// no-op with zero delta.
func (e *Engine) CatchUp(ctx context.Context, userID, habitID string) (ToggleResult, error) {
	h, err := e.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return ToggleResult{}, err
	}

	yesterday := e.Today().AddDays(-1)
	current, _, err := e.visualState(ctx, h, yesterday)
	if err != nil {
		return ToggleResult{}, err
	}
	if current {
		u, err := e.Users.Get(ctx, h.UserID)
		if err != nil {
			return ToggleResult{}, &PersistError{Op: "load user", Err: err}
		}
		return ToggleResult{Completed: true, XPDelta: 0, XP: u.XP, Level: u.Level}, nil
	}

	return e.Toggle(ctx, userID, habitID, yesterday)
}
