// Package xp maps experience totals to levels and growth stages.
//
// The level curve is level² × 100: level 1 at 100 XP, level 2 at 400,
// level 10 at 10000, level 20 at 40000.
package xp

import "math"

const (
	stage2Level = 5
	stage3Level = 10
	stage4Level = 15
	stage5Level = 20
)

// Rewards is the XP award policy per habit cadence. Values come from
// configuration; the product tunes them.
type Rewards struct {
	Daily  int
	Weekly int
}

func DefaultRewards() Rewards {
	return Rewards{Daily: 500, Weekly: 5000}
}

// LevelFromXP returns the level for an XP total, floored at 1.
// Monotonic non-decreasing in xp.
func LevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := int(math.Sqrt(float64(xp) / 100))
	if level < 1 {
		return 1
	}
	return level
}

// XPForLevel returns the XP total at which a level begins.
func XPForLevel(level int) int {
	return level * level * 100
}

type Progress struct {
	CurrentLevel         int `json:"currentLevel"`
	XPInLevel            int `json:"xpInLevel"`
	XPNeededForNextLevel int `json:"xpNeededForNextLevel"`
	Percent              int `json:"percent"`
}

func LevelProgress(xp int) Progress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)

	inLevel := xp - floor
	if inLevel < 0 {
		inLevel = 0
	}
	needed := ceil - floor

	percent := inLevel * 100 / needed
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	return Progress{
		CurrentLevel:         level,
		XPInLevel:            inLevel,
		XPNeededForNextLevel: needed,
		Percent:              percent,
	}
}

// GrowthStage returns the pet growth stage (1..5) for a level.
func GrowthStage(level int) int {
	switch {
	case level >= stage5Level:
		return 5
	case level >= stage4Level:
		return 4
	case level >= stage3Level:
		return 3
	case level >= stage2Level:
		return 2
	default:
		return 1
	}
}

func StageLabel(stage int) string {
	switch stage {
	case 1:
		return "baby"
	case 2:
		return "child"
	case 3:
		return "teen"
	case 4:
		return "adult"
	case 5:
		return "elder"
	default:
		return "unknown"
	}
}

// StageImagePath returns the sprite path the web client renders for a stage.
func StageImagePath(stage int) string {
	if stage < 1 || stage > 5 {
		stage = 1
	}
	return "/hedgehogs/herisson-" + string(rune('0'+stage)) + ".png"
}
