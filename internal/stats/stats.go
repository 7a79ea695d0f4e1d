// Package stats derives read-only aggregates from the habit log history:
// calendar views, productivity charts and the CSV export. Everything here
// is recomputed from logs on demand; nothing is cached as authoritative.
package stats

import (
	"context"
	"time"

	"github.com/EnguerranCA/HabitHisson/internal/clock"
	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/engine"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/user"
	"github.com/EnguerranCA/HabitHisson/internal/xp"
)

type Service struct {
	Habits  habit.Repo
	Logs    habit.LogRepo
	Users   user.Repo
	Rewards xp.Rewards
	Clock   clock.Clock
}

func New(habits habit.Repo, logs habit.LogRepo, users user.Repo, rewards xp.Rewards, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Service{Habits: habits, Logs: logs, Users: users, Rewards: rewards, Clock: clk}
}

func (s *Service) today() dates.DayKey {
	return dates.ToDayKey(s.Clock.Now())
}

func (s *Service) reward(c habit.Cadence) int {
	if c == habit.CadenceWeekly {
		return s.Rewards.Weekly
	}
	return s.Rewards.Daily
}

// CalendarLog is one log row joined with its habit's display info.
type CalendarLog struct {
	ID        string       `json:"id"`
	HabitID   string       `json:"habitId"`
	Day       dates.DayKey `json:"day"`
	Completed bool         `json:"completed"`
	Name      string       `json:"name"`
	Emoji     string       `json:"emoji"`
	Kind      habit.Kind   `json:"kind"`
}

// LogsForMonth returns all of a user's logs inside one calendar month,
// joined with habit info, ordered by day.
func (s *Service) LogsForMonth(ctx context.Context, userID string, year, month int) ([]CalendarLog, error) {
	first := dates.ToDayKey(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	last := dates.ToDayKey(time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC))

	logs, err := s.Logs.ListByUser(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}
	habits, err := s.habitIndex(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	out := make([]CalendarLog, 0, len(logs))
	for _, l := range logs {
		h, ok := habits[l.HabitID]
		if !ok {
			continue
		}
		out = append(out, CalendarLog{
			ID:        l.ID,
			HabitID:   l.HabitID,
			Day:       l.Day,
			Completed: l.Completed,
			Name:      h.Name,
			Emoji:     h.Emoji,
			Kind:      h.Kind,
		})
	}
	return out, nil
}

type DayHabitState struct {
	HabitID   string     `json:"habitId"`
	Name      string     `json:"name"`
	Emoji     string     `json:"emoji"`
	Kind      habit.Kind `json:"kind"`
	Completed bool       `json:"completed"`
}

type DayDetails struct {
	Day    dates.DayKey    `json:"day"`
	Habits []DayHabitState `json:"habits"`
}

// DayDetails returns every active habit with its completion state on one
// day. A missing log reads as not completed.
func (s *Service) DayDetails(ctx context.Context, userID string, day dates.DayKey) (DayDetails, error) {
	habits, err := s.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return DayDetails{}, err
	}
	logs, err := s.Logs.ListByUser(ctx, userID, day, day)
	if err != nil {
		return DayDetails{}, err
	}

	byHabit := make(map[string]habit.Log, len(logs))
	for _, l := range logs {
		byHabit[l.HabitID] = l
	}

	details := DayDetails{Day: day, Habits: make([]DayHabitState, 0, len(habits))}
	for _, h := range habits {
		l, ok := byHabit[h.ID]
		details.Habits = append(details.Habits, DayHabitState{
			HabitID:   h.ID,
			Name:      h.Name,
			Emoji:     h.Emoji,
			Kind:      h.Kind,
			Completed: ok && l.Completed,
		})
	}
	return details, nil
}

func (s *Service) habitIndex(ctx context.Context, userID string, activeOnly bool) (map[string]habit.Habit, error) {
	habits, err := s.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: activeOnly})
	if err != nil {
		return nil, err
	}
	idx := make(map[string]habit.Habit, len(habits))
	for _, h := range habits {
		idx[h.ID] = h
	}
	return idx, nil
}

type WeeklyStat struct {
	WeekStart       dates.DayKey `json:"weekStart"`
	WeekEnd         dates.DayKey `json:"weekEnd"`
	TotalHabits     int          `json:"totalHabits"`
	CompletedHabits int          `json:"completedHabits"`
	SuccessRate     int          `json:"successRate"`
	XPEarned        int          `json:"xpEarned"`
}

type DailyXP struct {
	Day          dates.DayKey `json:"day"`
	XP           int          `json:"xp"`
	CumulativeXP int          `json:"cumulativeXp"`
}

type HabitStats struct {
	HabitID          string        `json:"habitId"`
	Name             string        `json:"name"`
	Emoji            string        `json:"emoji"`
	Kind             habit.Kind    `json:"kind"`
	Cadence          habit.Cadence `json:"cadence"`
	TotalCompletions int           `json:"totalCompletions"`
	CurrentStreak    int           `json:"currentStreak"`
	BestStreak       int           `json:"bestStreak"`
	SuccessRate      int           `json:"successRate"`
}

type MonthTotals struct {
	Name             string `json:"name"`
	SuccessRate      int    `json:"successRate"`
	TotalCompletions int    `json:"totalCompletions"`
	XPEarned         int    `json:"xpEarned"`
}

type MonthComparison struct {
	Current           MonthTotals `json:"currentMonth"`
	Previous          MonthTotals `json:"previousMonth"`
	SuccessRateChange int         `json:"successRateChange"`
	CompletionsChange int         `json:"completionsChange"`
	XPChange          int         `json:"xpChange"`
}

type GlobalStats struct {
	TotalHabits        int `json:"totalHabits"`
	TotalCompletions   int `json:"totalCompletions"`
	OverallSuccessRate int `json:"overallSuccessRate"`
	TotalXP            int `json:"totalXp"`
	AverageDaily       int `json:"averageDaily"`
}

type Productivity struct {
	Weekly          []WeeklyStat    `json:"weekly"`
	DailyXP         []DailyXP       `json:"dailyXp"`
	Habits          []HabitStats    `json:"habits"`
	MonthComparison MonthComparison `json:"monthComparison"`
	Global          GlobalStats     `json:"globalStats"`
}

// Productivity computes the stats dashboard aggregates over a trailing
// window of whole weeks.
func (s *Service) Productivity(ctx context.Context, userID string, weeks int) (Productivity, error) {
	if weeks <= 0 {
		weeks = 12
	}
	today := s.today()

	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return Productivity{}, err
	}
	habits, err := s.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return Productivity{}, err
	}

	// One completed-day set per habit, over the habit's whole history so
	// streaks are exact.
	completed := make(map[string]map[dates.DayKey]bool, len(habits))
	allLogs := make(map[string][]habit.Log, len(habits))
	for _, h := range habits {
		logs, err := s.Logs.ListCompletedByHabit(ctx, h.ID)
		if err != nil {
			return Productivity{}, err
		}
		allLogs[h.ID] = logs
		set := make(map[dates.DayKey]bool, len(logs))
		for _, l := range logs {
			set[l.Day] = true
		}
		completed[h.ID] = set
	}

	createdDay := func(h habit.Habit) dates.DayKey {
		return dates.ToDayKey(h.CreatedAt)
	}

	var weekly []WeeklyStat
	for w := 0; w < weeks; w++ {
		weekStart := today.AddDays(-(weeks - w) * 7)
		weekEnd := weekStart.AddDays(6)

		var total, done, earned int
		for _, h := range habits {
			born := createdDay(h)
			for d := 0; d < 7; d++ {
				day := weekStart.AddDays(d)
				if day < born || day > today {
					continue
				}
				// Weekly habits count once per week.
				if h.Cadence == habit.CadenceWeekly && d > 0 {
					continue
				}
				total++
				isDone := completed[h.ID][day]
				if h.Cadence == habit.CadenceWeekly {
					for wd := 0; wd < 7; wd++ {
						if completed[h.ID][weekStart.AddDays(wd)] {
							isDone = true
							break
						}
					}
				}
				if isDone {
					done++
					earned += s.reward(h.Cadence)
				}
			}
		}
		weekly = append(weekly, WeeklyStat{
			WeekStart:       weekStart,
			WeekEnd:         weekEnd,
			TotalHabits:     total,
			CompletedHabits: done,
			SuccessRate:     ratio(done, total),
			XPEarned:        earned,
		})
	}

	var daily []DailyXP
	cumulative := 0
	for d := weeks * 7; d >= 0; d-- {
		day := today.AddDays(-d)
		dayXP := 0
		for _, h := range habits {
			if !completed[h.ID][day] {
				continue
			}
			if h.Kind == habit.KindGood {
				dayXP += s.reward(h.Cadence)
			} else {
				dayXP -= s.reward(h.Cadence)
			}
		}
		cumulative += dayXP
		if cumulative < 0 {
			cumulative = 0
		}
		daily = append(daily, DailyXP{Day: day, XP: dayXP, CumulativeXP: cumulative})
	}

	habitStats := make([]HabitStats, 0, len(habits))
	totalCompletions := 0
	for _, h := range habits {
		logs := allLogs[h.ID]
		completions := len(logs)
		totalCompletions += completions

		daysSince := dates.Sub(today, createdDay(h)) + 1
		expected := daysSince
		if h.Cadence == habit.CadenceWeekly {
			expected = (daysSince + 6) / 7
		}
		rate := ratio(completions, expected)
		if rate > 100 {
			rate = 100
		}

		habitStats = append(habitStats, HabitStats{
			HabitID:          h.ID,
			Name:             h.Name,
			Emoji:            h.Emoji,
			Kind:             h.Kind,
			Cadence:          h.Cadence,
			TotalCompletions: completions,
			CurrentStreak:    engine.CurrentStreak(logs, today),
			BestStreak:       engine.BestStreak(logs),
			SuccessRate:      rate,
		})
	}

	comparison := s.monthComparison(today, habits, completed, createdDay)

	sumRates := 0
	for _, w := range weekly {
		sumRates += w.SuccessRate
	}
	overall := 0
	if len(weekly) > 0 {
		overall = sumRates / len(weekly)
	}

	return Productivity{
		Weekly:          weekly,
		DailyXP:         daily,
		Habits:          habitStats,
		MonthComparison: comparison,
		Global: GlobalStats{
			TotalHabits:        len(habits),
			TotalCompletions:   totalCompletions,
			OverallSuccessRate: overall,
			TotalXP:            u.XP,
			AverageDaily:       totalCompletions / (weeks * 7),
		},
	}, nil
}

func (s *Service) monthComparison(today dates.DayKey, habits []habit.Habit, completed map[string]map[dates.DayKey]bool, createdDay func(habit.Habit) dates.DayKey) MonthComparison {
	t := today.Time()
	curStart := dates.ToDayKey(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
	prevStart := dates.ToDayKey(time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, time.UTC))
	prevEnd := curStart.AddDays(-1)

	calc := func(start, end dates.DayKey) MonthTotals {
		var total, done, earned int
		for _, h := range habits {
			born := createdDay(h)
			from := start
			if born > from {
				from = born
			}
			if from > end {
				continue
			}
			days := dates.Sub(end, from) + 1
			if h.Cadence == habit.CadenceWeekly {
				total += (days + 6) / 7
			} else {
				total += days
			}
			for d := from; d <= end; d = d.AddDays(1) {
				if completed[h.ID][d] {
					done++
					if h.Kind == habit.KindGood {
						earned += s.reward(h.Cadence)
					}
				}
			}
		}
		return MonthTotals{
			SuccessRate:      ratio(done, total),
			TotalCompletions: done,
			XPEarned:         earned,
		}
	}

	cur := calc(curStart, today)
	cur.Name = t.Month().String()
	prev := calc(prevStart, prevEnd)
	prev.Name = prevStart.Time().Month().String()

	return MonthComparison{
		Current:           cur,
		Previous:          prev,
		SuccessRateChange: cur.SuccessRate - prev.SuccessRate,
		CompletionsChange: cur.TotalCompletions - prev.TotalCompletions,
		XPChange:          cur.XPEarned - prev.XPEarned,
	}
}

func ratio(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part)/float64(total)*100 + 0.5)
}
