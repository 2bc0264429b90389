package main

import (
	"math"
	"time"
)

// Unit conversion and energy-balance constants. 3500 kcal ≈ 1 lb of body mass,
// amortized over 7 days when converting a weekly weight change into a daily
// calorie delta.
const (
	lbsPerKg      = 2.20462
	kgPerLb       = 0.453592
	kcalPerLb     = 3500.0
	defaultActMul = 1.55
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels — also used for
// input validation in patchProfile. An unrecognized level falls back to
// defaultActMul (moderate) rather than failing the whole estimate.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// validGoalTypes is the set of allowed goal_type values. Anything else is
// treated as "maintain" by the recommender and rejected by patchProfile.
var validGoalTypes = map[string]bool{
	"lose":     true,
	"maintain": true,
	"gain":     true,
}

// goalWeeklyChangeLbs returns the target weekly weight change implied by the
// user's goal: lose = -1 lb/week, gain = +0.5 lb/week, anything else holds.
func goalWeeklyChangeLbs(goalType string) float64 {
	switch goalType {
	case "lose":
		return -1
	case "gain":
		return 0.5
	default:
		return 0
	}
}

// latestWeightKg returns the most recent weight observation converted to kg.
// The formula uses a single point-in-time weight, not a weekly average.
// Returns 0 when the history is empty — the weight term simply drops out of
// the BMR rather than the whole estimate failing.
func latestWeightKg(weights []weightSample) float64 {
	var latest *weightSample
	for i := range weights {
		if latest == nil || weights[i].Date.Time.After(latest.Date.Time) {
			latest = &weights[i]
		}
	}
	if latest == nil {
		return 0
	}
	if latest.Unit == "kg" {
		return latest.Weight
	}
	return latest.Weight * kgPerLb
}

// computeFormulaTDEE computes the population-reference TDEE via Mifflin-St Jeor
// from the profile and the most recent logged weight. Returns ok=false when any
// profile field the formula needs is nil — the caller surfaces that as a
// validation failure before any estimation runs.
func computeFormulaTDEE(p *userProfile, weights []weightSample) (formulaTDEE int, ok bool) {
	if p == nil || p.HeightCM == nil || p.Age == nil || p.Sex == nil || p.ActivityLevel == nil {
		return 0, false
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	weightKG := latestWeightKg(weights)
	bmr := 10*weightKG + 6.25**p.HeightCM - 5*float64(*p.Age)
	if *p.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, found := activityMultipliers[*p.ActivityLevel]
	if !found {
		mult = defaultActMul
	}

	return int(math.Round(bmr * mult)), true
}

// weekStart returns the most recent Sunday on/before t, at midnight UTC.
// Every log entry is keyed to the bucket this returns for its date. Uses
// AddDate to safely handle month/year boundaries — direct day subtraction
// can produce day=0 or negative, which time.Date normalizes but is confusing.
func weekStart(t time.Time) time.Time {
	u := t.UTC()
	daysBack := int(u.Weekday()) // 0=Sun
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysBack)
}
