package progress

import (
	"math"

	"github.com/edudash-hub/edudash-engine/internal/domain/lesson"
)

// CalculatePoints computes the points a completion awards:
// round(basePoints × scorePercent/100 × difficultyMultiplier).
// scorePercent is expected to be in [0,100]; callers clamp at their boundary,
// this function does not re-clamp.
func CalculatePoints(basePoints int, scorePercent float64, difficulty lesson.Difficulty) int {
	return int(math.Round(float64(basePoints) * (scorePercent / 100) * difficulty.Multiplier()))
}

// LevelForPoints computes the level for a points total:
// floor(sqrt(points/100)) + 1. Level 1 at 0 points, level 2 at 100,
// level 3 at 400, and so on. Non-decreasing in points.
func LevelForPoints(totalPoints int) int {
	if totalPoints < 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(totalPoints)/100))) + 1
}
