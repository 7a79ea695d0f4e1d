package engine

import (
	"context"
	"sort"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
)

// completedDays collapses logs to the set of days with Completed=true.
func completedDays(logs []habit.Log) map[dates.DayKey]bool {
	set := make(map[dates.DayKey]bool, len(logs))
	for _, l := range logs {
		if l.Completed {
			set[l.Day] = true
		}
	}
	return set
}

// CurrentStreak counts consecutive completed days ending at today. A
// missing completion for today itself does not break the streak; counting
// then starts at yesterday.
func CurrentStreak(logs []habit.Log, today dates.DayKey) int {
	set := completedDays(logs)

	day := today
	if !set[day] {
		day = day.AddDays(-1)
	}

	streak := 0
	for set[day] {
		streak++
		day = day.AddDays(-1)
	}
	return streak
}

// BestStreak returns the longest run of consecutive completed calendar
// days anywhere in the history. Empty input yields 0.
func BestStreak(logs []habit.Log) int {
	set := completedDays(logs)
	if len(set) == 0 {
		return 0
	}

	days := make([]dates.DayKey, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if dates.Sub(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

type DayStreak struct {
	Day    dates.DayKey `json:"day"`
	Streak int          `json:"streak"`
}

// StreakHistory computes the streak length as of each day in the trailing
// window, for charting. Unlike CurrentStreak there is no leniency: a day
// without a completion reads as 0.
func StreakHistory(logs []habit.Log, today dates.DayKey, windowDays int) []DayStreak {
	if windowDays <= 0 {
		return nil
	}
	set := completedDays(logs)

	first := today.AddDays(-(windowDays - 1))

	// Seed with the run ending just before the window, since the first
	// window day may continue a streak that started earlier.
	run := 0
	for d := first.AddDays(-1); set[d]; d = d.AddDays(-1) {
		run++
	}

	out := make([]DayStreak, 0, windowDays)
	for d := first; d <= today; d = d.AddDays(1) {
		if set[d] {
			run++
		} else {
			run = 0
		}
		out = append(out, DayStreak{Day: d, Streak: run})
	}
	return out
}

// HabitStreaks bundles the three streak queries for one habit.
type HabitStreaks struct {
	Current int         `json:"current"`
	Best    int         `json:"best"`
	History []DayStreak `json:"history"`
}

// Streaks loads the habit's completed logs once and derives current
// streak, best streak and the trailing history window from them.
func (e *Engine) Streaks(ctx context.Context, userID, habitID string, windowDays int) (HabitStreaks, error) {
	h, err := e.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return HabitStreaks{}, err
	}
	logs, err := e.Logs.ListCompletedByHabit(ctx, h.ID)
	if err != nil {
		return HabitStreaks{}, &PersistError{Op: "list logs", Err: err}
	}
	today := e.Today()
	return HabitStreaks{
		Current: CurrentStreak(logs, today),
		Best:    BestStreak(logs),
		History: StreakHistory(logs, today, windowDays),
	}, nil
}
