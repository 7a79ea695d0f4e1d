// Package engine implements the habit completion state machine: per-day
// toggling, XP accounting with a floor at zero, streak derivation and the
// once-per-day catch-up flow.
package engine

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/EnguerranCA/HabitHisson/internal/clock"
	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/user"
	"github.com/EnguerranCA/HabitHisson/internal/xp"
)

const lockStripes = 64

type Engine struct {
	Habits  habit.Repo
	Logs    habit.LogRepo
	Users   user.Repo
	Rewards xp.Rewards
	Clock   clock.Clock
	Logger  *log.Logger

	locks [lockStripes]sync.Mutex
}

func New(habits habit.Repo, logs habit.LogRepo, users user.Repo, rewards xp.Rewards, clk clock.Clock, logger *log.Logger) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		Habits:  habits,
		Logs:    logs,
		Users:   users,
		Rewards: rewards,
		Clock:   clk,
		Logger:  logger,
	}
}

type ToggleResult struct {
	// Completed is the visual state after the toggle: for weekly habits
	// the week aggregate, for daily habits the day's flag.
	Completed bool `json:"completed"`
	// XPDelta is the realized XP change. Zero when a weekly toggle did
	// not flip the week aggregate, or when the floor at zero absorbed a
	// decrement.
	XPDelta int `json:"xpDelta"`
	XP      int `json:"xp"`
	Level   int `json:"level"`
}

// lockFor serializes concurrent toggles of the same (habit, day) so
// duplicate clicks cannot double-count XP.
func (e *Engine) lockFor(habitID string, day dates.DayKey) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(habitID))
	_, _ = h.Write([]byte(day))
	return &e.locks[h.Sum32()%lockStripes]
}

func (e *Engine) award(c habit.Cadence) int {
	if c == habit.CadenceWeekly {
		return e.Rewards.Weekly
	}
	return e.Rewards.Daily
}

// ownedHabit loads a habit and checks ownership. Missing and not-owned
// both surface as ErrNotFound.
func (e *Engine) ownedHabit(ctx context.Context, userID, habitID string) (habit.Habit, error) {
	if userID == "" {
		return habit.Habit{}, ErrUnauthenticated
	}
	h, err := e.Habits.Get(ctx, habitID)
	if errors.Is(err, habit.ErrNotFound) {
		return habit.Habit{}, ErrNotFound
	}
	if err != nil {
		return habit.Habit{}, &PersistError{Op: "load habit", Err: err}
	}
	if h.UserID != userID {
		return habit.Habit{}, ErrNotFound
	}
	return h, nil
}

// visualState returns the state the user currently sees as the checkbox
// for day: the day's own flag for daily habits, the aggregate of the
// containing week for weekly habits. weekCompleted counts completed days
// in that week (weekly habits only).
func (e *Engine) visualState(ctx context.Context, h habit.Habit, day dates.DayKey) (current bool, weekLogs []habit.Log, err error) {
	if h.Cadence == habit.CadenceWeekly {
		weekLogs, err = e.Logs.ListByHabit(ctx, h.ID, dates.StartOfWeek(day), dates.EndOfWeek(day))
		if err != nil {
			return false, nil, &PersistError{Op: "list week logs", Err: err}
		}
		for _, l := range weekLogs {
			if l.Completed {
				return true, weekLogs, nil
			}
		}
		return false, weekLogs, nil
	}

	l, ok, err := e.Logs.Get(ctx, h.ID, day)
	if err != nil {
		return false, nil, &PersistError{Op: "load log", Err: err}
	}
	return ok && l.Completed, nil, nil
}

// Toggle flips the completion state of a habit for one day and applies
// the resulting XP delta.
//
// The sign table: completing a GOOD habit earns the reward, un-completing
// reverses it; BAD habits invert both. For weekly habits the delta only
// applies when the week's aggregate state flips, so marking a second day
// in an already-done week never re-awards, and unchecking a day while
// another completed day remains never reverses.
func (e *Engine) Toggle(ctx context.Context, userID, habitID string, day dates.DayKey) (ToggleResult, error) {
	h, err := e.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return ToggleResult{}, err
	}

	mu := e.lockFor(habitID, day)
	mu.Lock()
	defer mu.Unlock()

	current, weekLogs, err := e.visualState(ctx, h, day)
	if err != nil {
		return ToggleResult{}, err
	}
	newState := !current

	if _, err := e.Logs.Upsert(ctx, habit.Log{
		HabitID:   h.ID,
		UserID:    h.UserID,
		Day:       day,
		Completed: newState,
	}); err != nil {
		return ToggleResult{}, &PersistError{Op: "upsert log", Err: err}
	}

	// Aggregate state after the write. For daily habits it is the day's
	// own flag; for weekly habits another completed day keeps the week
	// aggregate true even after this day was unchecked.
	aggAfter := newState
	if h.Cadence == habit.CadenceWeekly && !newState {
		for _, l := range weekLogs {
			if l.Day != day && l.Completed {
				aggAfter = true
				break
			}
		}
	}

	delta := 0
	if aggAfter != current {
		r := e.award(h.Cadence)
		gained := aggAfter // aggregate went false->true
		if h.Kind == habit.KindBad {
			gained = !gained
		}
		if gained {
			delta = r
		} else {
			delta = -r
		}
	}

	u, err := e.Users.Get(ctx, h.UserID)
	if err != nil {
		return ToggleResult{}, &PersistError{Op: "load user", AfterLogWrite: true, Err: err}
	}

	newXP := u.XP + delta
	if newXP < 0 {
		newXP = 0
	}
	realized := newXP - u.XP
	newLevel := xp.LevelFromXP(newXP)

	if err := e.Users.SetXP(ctx, h.UserID, newXP, newLevel); err != nil {
		return ToggleResult{}, &PersistError{Op: "save xp", AfterLogWrite: true, Err: err}
	}

	e.Logger.Debug("habit toggled",
		"habit", h.ID, "day", day, "completed", aggAfter, "xp_delta", realized, "xp", newXP)

	return ToggleResult{
		Completed: aggAfter,
		XPDelta:   realized,
		XP:        newXP,
		Level:     newLevel,
	}, nil
}

// WeekAggregateState reports whether a habit counts as done for the week
// containing day. Exposed for list views; Toggle uses the same scan.
func (e *Engine) WeekAggregateState(ctx context.Context, userID, habitID string, day dates.DayKey) (bool, error) {
	h, err := e.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return false, err
	}
	current, _, err := e.visualState(ctx, h, day)
	return current, err
}

// Today returns the current day key under the engine clock.
func (e *Engine) Today() dates.DayKey {
	return dates.ToDayKey(e.Clock.Now())
}

// HabitWithState is a habit plus its current visual completion state,
// as rendered on the dashboard.
type HabitWithState struct {
	habit.Habit
	Completed bool `json:"completed"`
}

// ListHabitsWithState returns the user's active habits with today's
// visual state resolved per cadence.
func (e *Engine) ListHabitsWithState(ctx context.Context, userID string) ([]HabitWithState, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	habits, err := e.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return nil, &PersistError{Op: "list habits", Err: err}
	}

	today := e.Today()
	out := make([]HabitWithState, 0, len(habits))
	for _, h := range habits {
		current, _, err := e.visualState(ctx, h, today)
		if err != nil {
			return nil, err
		}
		out = append(out, HabitWithState{Habit: h, Completed: current})
	}
	return out, nil
}
