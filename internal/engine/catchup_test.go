package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/user"
)

func TestShouldPromptCatchUp_FiresOnlyAfterExactlyOneDay(t *testing.T) {
	ctx := context.Background()
	e, users, _ := newTestEngine(t, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	u := seedUser(t, users)
	today := e.Today()

	// First check ever: nothing to catch up, but the day is recorded.
	prompt, err := e.ShouldPromptCatchUp(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, prompt)
	p, err := users.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, today, p.LastLoginDate)

	// Same-day recheck stays quiet.
	prompt, err = e.ShouldPromptCatchUp(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, prompt)

	// Last seen exactly yesterday: prompt fires.
	require.NoError(t, users.SetLastLogin(ctx, u.ID, today.AddDays(-1)))
	prompt, err = e.ShouldPromptCatchUp(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, prompt)

	// A longer absence is not offered for backfill, but the stored day
	// still advances.
	require.NoError(t, users.SetLastLogin(ctx, u.ID, today.AddDays(-3)))
	prompt, err = e.ShouldPromptCatchUp(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, prompt)
	p, err = users.GetProgress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, today, p.LastLoginDate)
}

func TestMissedHabits(t *testing.T) {
	ctx := context.Background()
	e, users, _ := newTestEngine(t, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)) // Wednesday
	u := seedUser(t, users)
	yesterday := e.Today().AddDays(-1)

	noLog := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceDaily)
	doneYesterday := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceDaily)
	explicitFalse := seedHabit(t, e, u.ID, habit.KindBad, habit.CadenceDaily)
	weeklyDone := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceWeekly)
	weeklyMissed := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceWeekly)

	_, err := e.Logs.Upsert(ctx, habit.Log{HabitID: doneYesterday.ID, UserID: u.ID, Day: yesterday, Completed: true})
	require.NoError(t, err)
	_, err = e.Logs.Upsert(ctx, habit.Log{HabitID: explicitFalse.ID, UserID: u.ID, Day: yesterday, Completed: false})
	require.NoError(t, err)
	// Weekly habit completed on Monday of the current week.
	_, err = e.Logs.Upsert(ctx, habit.Log{HabitID: weeklyDone.ID, UserID: u.ID, Day: "2026-02-02", Completed: true})
	require.NoError(t, err)

	missed, err := e.MissedHabits(ctx, u.ID)
	require.NoError(t, err)

	ids := make(map[string]bool, len(missed))
	for _, m := range missed {
		ids[m.ID] = true
	}
	assert.True(t, ids[noLog.ID], "no log at all counts as missed")
	assert.True(t, ids[explicitFalse.ID], "explicit completed=false counts as missed")
	assert.True(t, ids[weeklyMissed.ID], "weekly with no completed day this week is missed")
	assert.False(t, ids[doneYesterday.ID])
	assert.False(t, ids[weeklyDone.ID])
}

func TestCatchUp_AwardsOnceAndNeverUncompletes(t *testing.T) {
	ctx := context.Background()
	e, users, _ := newTestEngine(t, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	u := seedUser(t, users)
	h := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceDaily)
	yesterday := e.Today().AddDays(-1)

	res, err := e.CatchUp(ctx, u.ID, h.ID)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 500, res.XPDelta)

	l, ok, err := e.Logs.Get(ctx, h.ID, yesterday)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, l.Completed)

	// Catching up again is a no-op, not an untoggle.
	res, err = e.CatchUp(ctx, u.ID, h.ID)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 0, res.XPDelta)
	assert.Equal(t, 500, res.XP)
}

func TestCatchUp_WeeklyUsesWeekAggregate(t *testing.T) {
	ctx := context.Background()
	e, users, _ := newTestEngine(t, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)) // Wednesday
	u := seedUser(t, users)
	h := seedHabit(t, e, u.ID, habit.KindGood, habit.CadenceWeekly)

	// Completed Monday: the week already counts, so catch-up must not
	// award again even though yesterday has no log.
	_, err := e.Logs.Upsert(ctx, habit.Log{HabitID: h.ID, UserID: u.ID, Day: "2026-02-02", Completed: true})
	require.NoError(t, err)
	require.NoError(t, users.SetXP(ctx, u.ID, 5000, 7))

	res, err := e.CatchUp(ctx, u.ID, h.ID)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 0, res.XPDelta)
	assert.Equal(t, 5000, res.XP)
}

func TestCatchUp_OwnershipChecked(t *testing.T) {
	ctx := context.Background()
	e, users, _ := newTestEngine(t, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	owner := seedUser(t, users)
	h := seedHabit(t, e, owner.ID, habit.KindGood, habit.CadenceDaily)

	other, err := users.Create(ctx, user.User{Name: "Other", Email: "other@example.com"})
	require.NoError(t, err)

	_, err = e.CatchUp(ctx, other.ID, h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
