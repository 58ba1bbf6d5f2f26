package academic

import (
	"math"

	"github.com/trezcool/academia/core"
)

const (
	MinScore = 0
	MaxScore = 100
)

// gradeThresholds are evaluated in order, the first lower bound reached wins.
var gradeThresholds = []struct {
	min   float64
	grade string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// GradeFor returns the letter grade of `score`. Lower bounds are inclusive.
func GradeFor(score float64) string {
	for _, th := range gradeThresholds {
		if score >= th.min {
			return th.grade
		}
	}
	return "F"
}

func validateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < MinScore || score > MaxScore {
		return core.NewInvalidArgumentError("score", "score must be between 0 and 100")
	}
	return nil
}
