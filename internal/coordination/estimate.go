// Package coordination logs an activity on the user's behalf, deriving
// calories and intensity from the exercise type, duration and profile weight.
package coordination

import (
	"math"
	"strings"

	"github.com/garrikyx/FItflow/internal/activity"
)

// DefaultWeightKg is used when the profile carries no weight.
const DefaultWeightKg = 70.0

// defaultMET applies to exercise types missing from metValues.
const defaultMET = 5.0

// metValues are metabolic equivalents per exercise type.
var metValues = map[string]float64{
	"running":       9.8,
	"walking":       3.5,
	"cycling":       7.5,
	"swimming":      8.3,
	"hiking":        5.3,
	"yoga":          2.5,
	"weightlifting": 3.5,
	"dancing":       4.8,
	"basketball":    6.5,
	"soccer":        7.0,
	"tennis":        7.3,
}

var baseIntensity = map[string]int{
	"running":       3,
	"swimming":      3,
	"basketball":    3,
	"soccer":        3,
	"tennis":        3,
	"cycling":       2,
	"hiking":        2,
	"dancing":       2,
	"weightlifting": 2,
	"walking":       1,
	"yoga":          1,
}

var intensityLevels = [...]activity.Intensity{activity.IntensityLow, activity.IntensityModerate, activity.IntensityHigh}

// MET returns the metabolic equivalent for exerciseType, matched case-insensitively.
func MET(exerciseType string) float64 {
	if met, ok := metValues[strings.ToLower(exerciseType)]; ok {
		return met
	}
	return defaultMET
}

// EstimateCalories is MET x weight (kg) x hours, truncated to whole calories.
func EstimateCalories(weightKg float64, exerciseType string, durationMin int) float64 {
	return math.Trunc(MET(exerciseType) * weightKg * float64(durationMin) / 60)
}

// InferIntensity grades the session from its exercise type, then shifts one
// level down under 15 minutes and one level up over 45, clamped to low..high.
func InferIntensity(exerciseType string, durationMin int) activity.Intensity {
	level, ok := baseIntensity[strings.ToLower(exerciseType)]
	if !ok {
		level = 2
	}
	switch {
	case durationMin < 15:
		level--
	case durationMin > 45:
		level++
	}
	level = min(max(level, 1), 3)
	return intensityLevels[level-1]
}
