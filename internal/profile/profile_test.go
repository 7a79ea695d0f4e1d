package profile

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnguerranCA/HabitHisson/internal/clock"
	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/user"
)

func newServiceForTests(t *testing.T) (*Service, *user.MemoryRepo, *habit.MemoryRepo, *habit.MemoryLogRepo) {
	t.Helper()
	users := user.NewMemoryRepo()
	habits := habit.NewMemoryRepo()
	logs := habit.NewMemoryLogRepo()
	clk := clock.NewFakeClock(time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC))
	return New(users, habits, logs, clk, log.New(io.Discard)), users, habits, logs
}

func TestGet_DerivesStageAndTotals(t *testing.T) {
	ctx := context.Background()
	svc, users, habits, logs := newServiceForTests(t)

	u, err := users.Create(ctx, user.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	require.NoError(t, users.SetXP(ctx, u.ID, 2500, 5))

	h, err := habits.Create(ctx, habit.Habit{
		UserID: u.ID, Name: "Walk", Emoji: "🚶", Kind: habit.KindGood, Cadence: habit.CadenceDaily,
	})
	require.NoError(t, err)
	for _, d := range []dates.DayKey{"2026-02-01", "2026-02-02", "2026-02-03", "2026-02-05"} {
		_, err := logs.Upsert(ctx, habit.Log{HabitID: h.ID, UserID: u.ID, Day: d, Completed: true})
		require.NoError(t, err)
	}

	p, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, 2500, p.XP)
	assert.Equal(t, 5, p.Level)
	assert.Equal(t, 2, p.Stage)
	assert.Equal(t, "child", p.StageLabel)
	assert.Equal(t, "/hedgehogs/herisson-2.png", p.StageImage)
	assert.Equal(t, 1, p.TotalHabits)
	assert.Equal(t, 4, p.TotalCompletions)
	assert.Equal(t, 3, p.BestStreak)

	// The cached best streak is refreshed as a side effect.
	prog, err := users.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, prog.BestStreak)
}

func TestGet_UnknownUser(t *testing.T) {
	svc, _, _, _ := newServiceForTests(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdate_AppliesPatchAndReturnsFreshProfile(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newServiceForTests(t)

	u, err := users.Create(ctx, user.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	name := "Ana B"
	public := true
	p, err := svc.Update(ctx, u.ID, user.Patch{Name: &name, Public: &public})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", p.Name)
	assert.True(t, p.Public)
}

func TestXP_DegradesForUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newServiceForTests(t)

	s, err := svc.XP(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, XPSummary{XP: 0, Level: 1, Stage: 1}, s)

	u, err := users.Create(ctx, user.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	require.NoError(t, users.SetXP(ctx, u.ID, 10000, 10))

	s, err = svc.XP(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, XPSummary{XP: 10000, Level: 10, Stage: 3}, s)
}
