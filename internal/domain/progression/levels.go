package progression

import (
	"time"

	"github.com/shopspring/decimal"
)

type Level string

const (
	LevelBronze   Level = "bronze"
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"
	LevelDiamond  Level = "diamond"
)

// XPPerLuvy is the experience granted per earned token
const XPPerLuvy = 10

// Threshold is the cumulative earnings at which a level starts
type Threshold struct {
	Level Level
	Min   decimal.Decimal
}

// Thresholds lists levels in ascending order
var Thresholds = []Threshold{
	{LevelBronze, decimal.Zero},
	{LevelSilver, decimal.NewFromInt(500)},
	{LevelGold, decimal.NewFromInt(2000)},
	{LevelPlatinum, decimal.NewFromInt(5000)},
	{LevelDiamond, decimal.NewFromInt(10000)},
}

// LevelFor returns the level reached with totalEarned cumulative tokens
func LevelFor(totalEarned decimal.Decimal) Level {
	level := LevelBronze
	for _, t := range Thresholds {
		if totalEarned.GreaterThanOrEqual(t.Min) {
			level = t.Level
		}
	}
	return level
}

// Rank orders levels, bronze is 0. Unknown levels rank -1.
func (l Level) Rank() int {
	for i, t := range Thresholds {
		if t.Level == l {
			return i
		}
	}
	return -1
}

// XPFor returns floor(luvy * XPPerLuvy)
func XPFor(luvy decimal.Decimal) int64 {
	return luvy.Mul(decimal.NewFromInt(XPPerLuvy)).Floor().IntPart()
}

// NextStreak returns the consecutive-day count after activity on today.
// Activity on the same day keeps the streak, the following day extends it,
// and any gap restarts it at 1.
func NextStreak(current int, lastActive *time.Time, today time.Time) int {
	if lastActive == nil {
		return 1
	}
	last := civilDay(*lastActive)
	day := civilDay(today)
	switch {
	case day.Equal(last):
		if current < 1 {
			return 1
		}
		return current
	case day.Equal(last.AddDate(0, 0, 1)):
		return current + 1
	}
	return 1
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
