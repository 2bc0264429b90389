package main

import (
	"errors"
	"math"
	"sort"
	"time"
)

/* ─── Errors ─────────────────────────────────────────────────────────── */

// Estimator input failures. All of these are rejected before any computation
// starts — no partial result is ever returned alongside an error.
var (
	errMissingWeightHistory  = errors.New("weight_history is required")
	errMissingCalorieHistory = errors.New("calorie_history is required")
	errMissingProfile        = errors.New("profile is required")
	errIncompleteProfile     = errors.New("profile must include height_cm, age, sex, and activity_level")
	errDegenerateProfile     = errors.New("profile produces a non-positive formula TDEE")
)

/* ─── Tuning constants ───────────────────────────────────────────────── */

const (
	// minEntriesPerWeek is how many weight AND calorie entries a week needs
	// before its averages are trusted enough to derive a TDEE point.
	minEntriesPerWeek = 3

	// Derived TDEE values outside this open interval are implausible for a
	// human and get discarded (bad scale reading, mislogged calories).
	minPlausibleTDEE = 800.0
	maxPlausibleTDEE = 6000.0

	// smoothingAlpha is the EMA factor: each new weekly point contributes 30%,
	// the running estimate keeps 70%.
	smoothingAlpha = 0.3

	// minDataPoints is the floor below which the empirical signal is too
	// sparse to trust and the formula estimate wins outright.
	minDataPoints = 2

	// historyLen caps how many weekly points the result carries back to the client.
	historyLen = 8

	// minRecommendedCalories is a safety floor — no recommendation goes below
	// this no matter how aggressive the computed deficit is.
	minRecommendedCalories = 1200
)

/* ─── Stage 1: weekly aggregation ────────────────────────────────────── */

// aggregateWeeks buckets raw weight and calorie entries into calendar weeks
// keyed by weekStart of each entry's date, returned ascending by week start.
// Grouping goes through a map but the output is explicitly sorted — the
// downstream fold and the EMA both depend on ascending order. No entry is
// dropped here; incomplete buckets are filtered by qualification later.
func aggregateWeeks(weights []weightSample, calories []calorieSample) []weekBucket {
	byStart := make(map[time.Time]*weekBucket)
	bucketFor := func(date time.Time) *weekBucket {
		start := weekStart(date)
		b, ok := byStart[start]
		if !ok {
			b = &weekBucket{weekStart: start}
			byStart[start] = b
		}
		return b
	}

	for _, w := range weights {
		b := bucketFor(w.Date.Time)
		b.weights = append(b.weights, w)
	}
	for _, c := range calories {
		b := bucketFor(c.Date.Time)
		b.calories = append(b.calories, c)
	}

	buckets := make([]weekBucket, 0, len(byStart))
	for _, b := range byStart {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].weekStart.Before(buckets[j].weekStart)
	})
	return buckets
}

/* ─── Stage 2: TDEE derivation ───────────────────────────────────────── */

// deriveState is the fold accumulator threaded through the week buckets.
// Keeping prevAvgWeight here (rather than a loop-local mutable) makes the
// advance-even-when-rejected rule an explicit branch instead of a side effect.
type deriveState struct {
	prevAvgWeight *float64
	points        []weeklyDataPoint
}

// deriveWeeklyPoints folds the ascending week buckets into empirical TDEE
// data points. A week qualifies with at least minEntriesPerWeek weight AND
// calorie entries; the first qualifying week only seeds the baseline. The
// energy-balance identity: calories eaten minus calories stored as weight
// change equals calories expended.
func deriveWeeklyPoints(buckets []weekBucket) []weeklyDataPoint {
	var s deriveState
	for _, b := range buckets {
		if len(b.weights) < minEntriesPerWeek || len(b.calories) < minEntriesPerWeek {
			// Non-qualifying weeks leave the baseline untouched.
			continue
		}

		avgWeight := avgWeightLbs(b.weights)
		avgCal := avgCalories(b.calories)

		if s.prevAvgWeight != nil {
			change := avgWeight - *s.prevAvgWeight
			tdee := avgCal - change*kcalPerLb/7
			// Strictly-inside plausibility band; rejected points still advance
			// the baseline below, so one bad week can't poison the next diff.
			if tdee > minPlausibleTDEE && tdee < maxPlausibleTDEE {
				s.points = append(s.points, weeklyDataPoint{
					WeekEndDate:     DateOnly{b.weekStart.AddDate(0, 0, 6)},
					AvgWeightLbs:    avgWeight,
					AvgCalories:     avgCal,
					WeightChangeLbs: change,
					CalculatedTDEE:  tdee,
				})
			}
		}

		// Every qualifying week becomes the next baseline — accepted or not.
		w := avgWeight
		s.prevAvgWeight = &w
	}
	return s.points
}

// avgWeightLbs averages a week's weight entries, converting kg entries to lbs.
func avgWeightLbs(weights []weightSample) float64 {
	var sum float64
	for _, w := range weights {
		if w.Unit == "kg" {
			sum += w.Weight * lbsPerKg
		} else {
			sum += w.Weight
		}
	}
	return sum / float64(len(weights))
}

// avgCalories averages a week's calorie entries.
func avgCalories(calories []calorieSample) float64 {
	var sum float64
	for _, c := range calories {
		sum += c.CaloriesConsumed
	}
	return sum / float64(len(calories))
}

/* ─── Stage 3: smoothing ─────────────────────────────────────────────── */

// smoothTDEE folds the ordered calculated-TDEE sequence into one adaptive
// estimate: seeded by the first value, then EMA with smoothingAlpha. The fold
// is order-sensitive — callers must pass values in ascending week order.
// Empty input yields 0; the reconciler resolves that case.
func smoothTDEE(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	acc := values[0]
	for _, v := range values[1:] {
		acc = smoothingAlpha*v + (1-smoothingAlpha)*acc
	}
	return acc
}

/* ─── Confidence scoring ─────────────────────────────────────────────── */

// scoreConfidence sums three independently bounded components: data-point
// quantity (0-40), week-to-week consistency (0-30), and raw-log density
// (0-30). The components max out at exactly 100 so no clamp is applied.
func scoreConfidence(points []weeklyDataPoint, distinctDays int) (score int, label string) {
	// Quantity: more accepted weekly points, more trust.
	n := len(points)
	switch {
	case n >= 8:
		score += 40
	case n >= 4:
		score += 30
	case n >= 2:
		score += 20
	default:
		score += 10
	}

	// Consistency: coefficient of variation of the accepted TDEE values.
	// Undefined (contributes 0) below two points.
	if n >= 2 {
		values := make([]float64, n)
		for i, p := range points {
			values[i] = p.CalculatedTDEE
		}
		cv := populationStdDev(values) / mean(values)
		switch {
		case cv < 0.05:
			score += 30
		case cv < 0.10:
			score += 25
		case cv < 0.15:
			score += 20
		default:
			score += 10
		}
	}

	// Density: distinct calendar dates across the union of the raw logs.
	switch {
	case distinctDays >= 28:
		score += 30
	case distinctDays >= 21:
		score += 25
	case distinctDays >= 14:
		score += 20
	default:
		score += 10
	}

	switch {
	case score >= 80:
		label = "high"
	case score >= 50:
		label = "medium"
	default:
		label = "low"
	}
	return score, label
}

// distinctLogDates counts unique calendar dates across both raw logs —
// a proxy for how consistently the user actually logged.
func distinctLogDates(weights []weightSample, calories []calorieSample) int {
	seen := make(map[string]bool)
	for _, w := range weights {
		seen[w.Date.Time.Format("2006-01-02")] = true
	}
	for _, c := range calories {
		seen[c.Date.Time.Format("2006-01-02")] = true
	}
	return len(seen)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev divides by N, not N-1 — the weekly points are treated as
// the whole population of observations, not a sample of a larger one.
func populationStdDev(values []float64) float64 {
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

/* ─── Pipeline entry point ───────────────────────────────────────────── */

// estimateAdaptiveTDEE runs the full estimator pipeline: aggregate raw logs
// into weeks, derive empirical TDEE points, smooth them, reconcile against
// the Mifflin-St Jeor reference, and assemble a confidence-scored result.
// Pure and synchronous — no I/O, safe to call concurrently. A nil history
// slice means the caller never supplied one and is rejected; an empty slice
// is valid input and yields a formula-only result.
func estimateAdaptiveTDEE(weights []weightSample, calories []calorieSample, profile *userProfile, now time.Time) (*adaptiveTDEEResult, error) {
	if weights == nil {
		return nil, errMissingWeightHistory
	}
	if calories == nil {
		return nil, errMissingCalorieHistory
	}
	if profile == nil {
		return nil, errMissingProfile
	}

	formulaTDEE, ok := computeFormulaTDEE(profile, weights)
	if !ok {
		return nil, errIncompleteProfile
	}
	// Explicit zero-guard: differencePercent divides by formulaTDEE below.
	// A profile degenerate enough to zero the formula is rejected outright.
	if formulaTDEE <= 0 {
		return nil, errDegenerateProfile
	}

	buckets := aggregateWeeks(weights, calories)
	points := deriveWeeklyPoints(buckets)

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.CalculatedTDEE
	}
	adaptiveTDEE := smoothTDEE(values)

	// Reconcile: below minDataPoints the empirical signal is too sparse to
	// trust, so the formula estimate wins exactly.
	if len(points) < minDataPoints {
		adaptiveTDEE = float64(formulaTDEE)
	}

	difference := adaptiveTDEE - float64(formulaTDEE)
	differencePercent := int(math.Round(difference / float64(formulaTDEE) * 100))

	trend := "normal"
	if differencePercent > 8 {
		trend = "faster"
	} else if differencePercent < -8 {
		trend = "slower"
	}

	goalType := "maintain"
	if profile.GoalType != nil {
		goalType = *profile.GoalType
	}
	recommended := int(math.Round(adaptiveTDEE + goalWeeklyChangeLbs(goalType)*kcalPerLb/7))
	if recommended < minRecommendedCalories {
		recommended = minRecommendedCalories
	}

	history := points
	if len(history) > historyLen {
		history = history[len(history)-historyLen:]
	}

	score, label := scoreConfidence(points, distinctLogDates(weights, calories))

	return &adaptiveTDEEResult{
		AdaptiveTDEE:        adaptiveTDEE,
		FormulaTDEE:         formulaTDEE,
		Difference:          difference,
		DifferencePercent:   differencePercent,
		Confidence:          label,
		ConfidenceScore:     score,
		DataPointCount:      len(points),
		RecommendedCalories: recommended,
		MetabolismTrend:     trend,
		WeeklyHistory:       history,
		LastCalculated:      now,
	}, nil
}
