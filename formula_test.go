package main

import (
	"testing"
	"time"
)

/* ─── Mifflin-St Jeor accuracy ───────────────────────────────────────── */

// TestComputeFormulaTDEE_Male pins the male formula with known inputs.
// 180 lbs = 81.64656 kg; BMR = 816.4656 + 6.25*175 - 5*30 + 5 = 1765.2156;
// TDEE = round(1765.2156 * 1.55) = 2736.
func TestComputeFormulaTDEE_Male(t *testing.T) {
	profile := makeProfile("male", 30, 175, "moderate", "maintain")
	weights := []weightSample{{Date: d("2026-01-10"), Weight: 180, Unit: "lbs"}}

	tdee, ok := computeFormulaTDEE(profile, weights)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if tdee != 2736 {
		t.Errorf("male formulaTDEE = %d, want 2736", tdee)
	}
}

// TestComputeFormulaTDEE_Female: same inputs, -161 instead of +5.
// BMR = 1599.2156; TDEE = round(1599.2156 * 1.55) = 2479.
func TestComputeFormulaTDEE_Female(t *testing.T) {
	profile := makeProfile("female", 30, 175, "moderate", "maintain")
	weights := []weightSample{{Date: d("2026-01-10"), Weight: 180, Unit: "lbs"}}

	tdee, ok := computeFormulaTDEE(profile, weights)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if tdee != 2479 {
		t.Errorf("female formulaTDEE = %d, want 2479", tdee)
	}
}

// TestComputeFormulaTDEE_MissingFields verifies ok=false when any formula
// field is nil. Each sub-test nils out one field on an otherwise-valid profile.
func TestComputeFormulaTDEE_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(p *userProfile)
	}{
		{"nil HeightCM", func(p *userProfile) { p.HeightCM = nil }},
		{"nil Age", func(p *userProfile) { p.Age = nil }},
		{"nil Sex", func(p *userProfile) { p.Sex = nil }},
		{"nil ActivityLevel", func(p *userProfile) { p.ActivityLevel = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makeProfile("male", 30, 175, "moderate", "maintain")
			tc.mutFn(p)
			if _, ok := computeFormulaTDEE(p, []weightSample{}); ok {
				t.Errorf("expected ok=false when %s", tc.name)
			}
		})
	}

	if _, ok := computeFormulaTDEE(nil, []weightSample{}); ok {
		t.Error("expected ok=false for nil profile")
	}
}

// TestComputeFormulaTDEE_UnknownActivityDefaults: an unrecognized activity
// level falls back to the moderate multiplier rather than failing.
func TestComputeFormulaTDEE_UnknownActivityDefaults(t *testing.T) {
	weights := []weightSample{{Date: d("2026-01-10"), Weight: 180, Unit: "lbs"}}

	known, ok := computeFormulaTDEE(makeProfile("male", 30, 175, "moderate", "maintain"), weights)
	if !ok {
		t.Fatal("expected ok=true for moderate")
	}
	unknown, ok := computeFormulaTDEE(makeProfile("male", 30, 175, "ultra_marathon", "maintain"), weights)
	if !ok {
		t.Fatal("expected ok=true for unknown activity level")
	}
	if known != unknown {
		t.Errorf("unknown activity level TDEE = %d, want the moderate value %d", unknown, known)
	}
}

// TestComputeFormulaTDEE_ActivityMultipliers checks the full multiplier table
// ordering: each step up in activity strictly raises the estimate.
func TestComputeFormulaTDEE_ActivityMultipliers(t *testing.T) {
	weights := []weightSample{{Date: d("2026-01-10"), Weight: 180, Unit: "lbs"}}
	levels := []string{"sedentary", "light", "moderate", "active", "very_active"}

	prev := 0
	for _, level := range levels {
		tdee, ok := computeFormulaTDEE(makeProfile("male", 30, 175, level, "maintain"), weights)
		if !ok {
			t.Fatalf("expected ok=true for %s", level)
		}
		if tdee <= prev {
			t.Errorf("%s TDEE = %d, expected > %d", level, tdee, prev)
		}
		prev = tdee
	}
}

/* ─── Latest weight selection ────────────────────────────────────────── */

// TestLatestWeightKg verifies the formula uses the single most recent entry
// (not a weekly average), converts lbs, passes kg through, and yields 0 for
// an empty history.
func TestLatestWeightKg(t *testing.T) {
	weights := []weightSample{
		{Date: d("2026-01-01"), Weight: 200, Unit: "lbs"},
		{Date: d("2026-01-15"), Weight: 80, Unit: "kg"}, // most recent
		{Date: d("2026-01-10"), Weight: 190, Unit: "lbs"},
	}
	if got := latestWeightKg(weights); got != 80 {
		t.Errorf("latestWeightKg = %f, want 80 (kg entry passes through)", got)
	}

	lbsOnly := []weightSample{{Date: d("2026-01-15"), Weight: 180, Unit: "lbs"}}
	want := 180 * kgPerLb
	if got := latestWeightKg(lbsOnly); !approxEqual(got, want, 1e-9) {
		t.Errorf("latestWeightKg = %f, want %f", got, want)
	}

	if got := latestWeightKg([]weightSample{}); got != 0 {
		t.Errorf("latestWeightKg(empty) = %f, want 0", got)
	}
}

/* ─── Goal deltas ────────────────────────────────────────────────────── */

// TestGoalWeeklyChangeLbs pins the goal-to-pace mapping, including the
// unknown-goal fallback to hold.
func TestGoalWeeklyChangeLbs(t *testing.T) {
	cases := []struct {
		goal string
		want float64
	}{
		{"lose", -1},
		{"gain", 0.5},
		{"maintain", 0},
		{"bulk_then_cut", 0},
	}
	for _, tc := range cases {
		if got := goalWeeklyChangeLbs(tc.goal); got != tc.want {
			t.Errorf("goalWeeklyChangeLbs(%q) = %f, want %f", tc.goal, got, tc.want)
		}
	}
}

/* ─── Week start ─────────────────────────────────────────────────────── */

// TestWeekStart_SundayKeying: every date maps to the most recent Sunday on or
// before it, at midnight UTC.
func TestWeekStart_SundayKeying(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"sunday maps to itself", "2026-01-04", "2026-01-04"},
		{"wednesday maps back", "2026-01-07", "2026-01-04"},
		{"saturday maps back six days", "2026-01-10", "2026-01-04"},
		{"month boundary", "2026-02-02", "2026-02-01"},
		{"year boundary", "2026-01-01", "2025-12-28"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, _ := time.Parse("2006-01-02", tc.in)
			got := weekStart(in)
			if got.Format("2006-01-02") != tc.want {
				t.Errorf("weekStart(%s) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
			}
			if got.Weekday() != time.Sunday {
				t.Errorf("weekStart(%s) weekday = %s, want Sunday", tc.in, got.Weekday())
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
				t.Errorf("weekStart(%s) is not midnight: %v", tc.in, got)
			}
			if got.Location() != time.UTC {
				t.Errorf("weekStart(%s) location = %v, want UTC", tc.in, got.Location())
			}
		})
	}
}
