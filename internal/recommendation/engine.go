// Package recommendation aggregates weather, activity history and profile data
// into a daily exercise recommendation.
package recommendation

import (
	"strings"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/profile"
)

// RecentWindow is how many of the newest activities the engine inspects.
const RecentWindow = 5

// overtrainingThreshold is the count of high-intensity sessions in RecentWindow that triggers recovery.
const overtrainingThreshold = 3

// WeatherSnapshot is the current weather at the requested location.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"`
	UVIndex     float64 `json:"uvIndex"`
	Humidity    float64 `json:"humidity"`
	Forecast    string  `json:"forecast"`
}

// Recommendation is the engine output returned to the caller.
type Recommendation struct {
	ExerciseRecommendation  string `json:"exerciseRecommendation"`
	IntensityRecommendation string `json:"intensityRecommendation"`
	SunscreenRecommendation string `json:"sunscreenRecommendation"`
	WeatherAlert            string `json:"weatherAlert"`
	HydrationTip            string `json:"hydrationTip"`
}

// Inputs bundles everything a rule may look at.
type Inputs struct {
	Profile    profile.Profile
	Weather    WeatherSnapshot
	Activities []activity.Record
	// Time of day as supplied by the caller. No rule reads it yet.
	Time string
}

// Rule refines the working recommendation. Rules run in order and later rules may overwrite earlier ones.
type Rule func(in Inputs, rec *Recommendation)

// Rules is the ordered rule table applied by Compute.
var Rules = []Rule{
	venueRule,
	exerciseTypeRule,
	sunscreenRule,
	baseIntensityRule,
	overtrainingRule,
	weatherAlertRule,
	hydrationRule,
}

// Compute is a pure function of its inputs. Only the first RecentWindow activities are considered.
func Compute(p profile.Profile, w WeatherSnapshot, recent []activity.Record, timeOfDay string) Recommendation {
	if len(recent) > RecentWindow {
		recent = recent[:RecentWindow]
	}
	in := Inputs{Profile: p, Weather: w, Activities: recent, Time: timeOfDay}

	var rec Recommendation
	for _, rule := range Rules {
		rule(in, &rec)
	}
	return rec
}

const (
	venueIndoor  = "indoor"
	venueOutdoor = "outdoor"
)

func venueRule(in Inputs, rec *Recommendation) {
	// Matching is case-sensitive: "Rain" stays outdoor.
	forecast := in.Weather.Forecast
	if strings.Contains(forecast, "rain") || strings.Contains(forecast, "storm") {
		rec.ExerciseRecommendation = venueIndoor
		return
	}
	rec.ExerciseRecommendation = venueOutdoor
}

func exerciseTypeRule(in Inputs, rec *Recommendation) {
	outdoor := rec.ExerciseRecommendation == venueOutdoor
	switch in.Profile.FitnessGoal {
	case profile.GoalCardio:
		if outdoor {
			rec.ExerciseRecommendation = "running"
		} else {
			rec.ExerciseRecommendation = "treadmill or stationary bike"
		}
	case profile.GoalStrength:
		if outdoor {
			rec.ExerciseRecommendation = "outdoor bodyweight workout"
		} else {
			rec.ExerciseRecommendation = "weight training"
		}
	}
}

func sunscreenRule(in Inputs, rec *Recommendation) {
	switch uv := in.Weather.UVIndex; {
	case uv > 7:
		rec.SunscreenRecommendation = "high SPF 50+"
	case uv > 3:
		rec.SunscreenRecommendation = "moderate SPF 30"
	default:
		rec.SunscreenRecommendation = "low SPF 15"
	}
}

func baseIntensityRule(in Inputs, rec *Recommendation) {
	switch temp := in.Weather.Temperature; {
	case temp > 30:
		rec.IntensityRecommendation = "low to moderate"
	case temp < 5:
		rec.IntensityRecommendation = "moderate with proper warm-up"
	default:
		rec.IntensityRecommendation = "moderate to high"
	}
}

func overtrainingRule(in Inputs, rec *Recommendation) {
	high := 0
	for _, a := range in.Activities {
		if a.Intensity == activity.IntensityHigh {
			high++
		}
	}
	if high >= overtrainingThreshold {
		rec.IntensityRecommendation = "low (recovery recommended)"
	}
}

func weatherAlertRule(in Inputs, rec *Recommendation) {
	switch {
	case in.Weather.Temperature > 35:
		rec.WeatherAlert = "Extreme heat warning"
	case in.Weather.UVIndex > 10:
		rec.WeatherAlert = "Extreme UV warning"
	default:
		rec.WeatherAlert = ""
	}
}

func hydrationRule(in Inputs, rec *Recommendation) {
	if in.Weather.Temperature > 25 {
		rec.HydrationTip = "Drink extra water"
		return
	}
	rec.HydrationTip = "Stay hydrated"
}
