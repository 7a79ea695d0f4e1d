// Package profile assembles the user profile view: identity, XP/level
// progress, pet growth stage and log-derived totals. The best streak is
// recomputed from logs on every read; the cached user_progress value is
// refreshed as a side effect but never trusted.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/EnguerranCA/HabitHisson/internal/clock"
	"github.com/EnguerranCA/HabitHisson/internal/engine"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/user"
	"github.com/EnguerranCA/HabitHisson/internal/xp"
)

type Profile struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	XP               int         `json:"xp"`
	Level            int         `json:"level"`
	Progress         xp.Progress `json:"progress"`
	Stage            int         `json:"stage"`
	StageLabel       string      `json:"stageLabel"`
	StageImage       string      `json:"stageImage"`
	Public           bool        `json:"public"`
	CreatedAt        time.Time   `json:"createdAt"`
	TotalHabits      int         `json:"totalHabits"`
	TotalCompletions int         `json:"totalCompletions"`
	BestStreak       int         `json:"bestStreak"`
}

type Service struct {
	Users  user.Repo
	Habits habit.Repo
	Logs   habit.LogRepo
	Clock  clock.Clock
	Logger *log.Logger
}

func New(users user.Repo, habits habit.Repo, logs habit.LogRepo, clk clock.Clock, logger *log.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{Users: users, Habits: habits, Logs: logs, Clock: clk, Logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	habits, err := s.Habits.List(ctx, habit.ListFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return Profile{}, err
	}

	totalCompletions := 0
	best := 0
	for _, h := range habits {
		logs, err := s.Logs.ListCompletedByHabit(ctx, h.ID)
		if err != nil {
			return Profile{}, err
		}
		totalCompletions += len(logs)
		if b := engine.BestStreak(logs); b > best {
			best = b
		}
	}

	// Refresh the cached value for consumers that only read the cache.
	if err := s.Users.SetBestStreak(ctx, userID, best); err != nil {
		s.Logger.Warn("best streak cache refresh failed", "user", userID, "err", err)
	}

	level := xp.LevelFromXP(u.XP)
	stage := xp.GrowthStage(level)
	return Profile{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		XP:               u.XP,
		Level:            level,
		Progress:         xp.LevelProgress(u.XP),
		Stage:            stage,
		StageLabel:       xp.StageLabel(stage),
		StageImage:       xp.StageImagePath(stage),
		Public:           u.Public,
		CreatedAt:        u.CreatedAt,
		TotalHabits:      len(habits),
		TotalCompletions: totalCompletions,
		BestStreak:       best,
	}, nil
}

func (s *Service) Update(ctx context.Context, userID string, p user.Patch) (Profile, error) {
	if _, err := s.Users.Update(ctx, userID, p); err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, userID)
}

// XPSummary is the lightweight payload behind the pet display.
type XPSummary struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
	Stage int `json:"stage"`
}

func (s *Service) XP(ctx context.Context, userID string) (XPSummary, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		// Stat reads degrade to a zero state rather than erroring the
		// whole view.
		if errors.Is(err, user.ErrNotFound) {
			return XPSummary{XP: 0, Level: 1, Stage: 1}, nil
		}
		return XPSummary{}, err
	}
	level := xp.LevelFromXP(u.XP)
	return XPSummary{XP: u.XP, Level: level, Stage: xp.GrowthStage(level)}, nil
}
