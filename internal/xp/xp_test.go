package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 1},
		{399, 1},
		{400, 2},
		{500, 2},
		{2499, 4},
		{2500, 5},
		{10000, 10},
		{40000, 20},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFromXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestLevelFromXP_MonotonicOverCurve(t *testing.T) {
	prev := LevelFromXP(0)
	for xp := 0; xp <= 50000; xp += 100 {
		l := LevelFromXP(xp)
		assert.GreaterOrEqual(t, l, prev, "xp=%d", xp)
		prev = l
	}
}

func TestXPForLevel_RoundTripsWithLevelFromXP(t *testing.T) {
	for level := 1; level <= 25; level++ {
		assert.Equal(t, level, LevelFromXP(XPForLevel(level)), "level=%d", level)
		assert.Equal(t, level, LevelFromXP(XPForLevel(level+1)-1), "just below level=%d", level+1)
	}
}

func TestLevelProgress(t *testing.T) {
	// Level 2 spans 400..900.
	p := LevelProgress(650)
	assert.Equal(t, 2, p.CurrentLevel)
	assert.Equal(t, 250, p.XPInLevel)
	assert.Equal(t, 500, p.XPNeededForNextLevel)
	assert.Equal(t, 50, p.Percent)

	p = LevelProgress(0)
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, 0, p.Percent)
}

func TestGrowthStage(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{
		{1, 1}, {4, 1},
		{5, 2}, {9, 2},
		{10, 3}, {14, 3},
		{15, 4}, {19, 4},
		{20, 5}, {99, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GrowthStage(tc.level), "level=%d", tc.level)
	}
}

func TestStageLabelAndImage(t *testing.T) {
	assert.Equal(t, "baby", StageLabel(1))
	assert.Equal(t, "elder", StageLabel(5))
	assert.Equal(t, "unknown", StageLabel(0))

	assert.Equal(t, "/hedgehogs/herisson-3.png", StageImagePath(3))
	// Out-of-range stages fall back to the first sprite.
	assert.Equal(t, "/hedgehogs/herisson-1.png", StageImagePath(0))
}
