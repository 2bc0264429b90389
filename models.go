package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// weightLogEntry maps to weight_log. Weight is stored in whatever unit the
// user logged it in; unit is "lbs" or "kg" and conversion happens at read time
// in the estimator, never on write.
type weightLogEntry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	Weight    float64    `json:"weight" db:"weight"`
	Unit      string     `json:"unit" db:"unit"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// calorieLogEntry maps to calorie_log. One row per user per day (UNIQUE constraint);
// the value is total intake for that day, not a single meal.
type calorieLogEntry struct {
	ID               int        `json:"id" db:"id"`
	UserID           int        `json:"user_id" db:"user_id"`
	Date             DateOnly   `json:"date" db:"date"`
	CaloriesConsumed float64    `json:"calories_consumed" db:"calories_consumed"`
	CreatedAt        *time.Time `json:"created_at" db:"created_at"`
}

// userProfile maps to user_profiles. One row per user with the body-profile
// fields the formula estimator needs. All nullable — a fresh row works, the
// estimator rejects it as incomplete rather than the DB rejecting the insert.
type userProfile struct {
	UserID        int      `json:"user_id" db:"user_id"`
	HeightCM      *float64 `json:"height_cm" db:"height_cm"`
	Age           *int     `json:"age" db:"age"`
	Sex           *string  `json:"sex" db:"sex"`
	ActivityLevel *string  `json:"activity_level" db:"activity_level"`
	GoalType      *string  `json:"goal_type" db:"goal_type"`
}

/* ─── Estimator input contract ───────────────────────────────────────── */

// weightSample is one weight observation as the estimator consumes it —
// either scanned from weight_log or supplied directly by the preview endpoint.
type weightSample struct {
	Date   DateOnly `json:"date" db:"date"`
	Weight float64  `json:"weight" db:"weight"`
	Unit   string   `json:"unit" db:"unit"`
}

// calorieSample is one day's calorie intake as the estimator consumes it.
type calorieSample struct {
	Date             DateOnly `json:"date" db:"date"`
	CaloriesConsumed float64  `json:"calories_consumed" db:"calories_consumed"`
}

// weekBucket groups the raw samples whose dates share a week start.
// A bucket may hold weights with no calories (or vice versa); such buckets
// survive aggregation and are filtered by the qualification rule downstream.
type weekBucket struct {
	weekStart time.Time
	weights   []weightSample
	calories  []calorieSample
}

/* ─── Estimator output ───────────────────────────────────────────────── */

// weeklyDataPoint is one accepted empirical TDEE observation, derived from a
// qualifying week diffed against the previous qualifying week.
type weeklyDataPoint struct {
	WeekEndDate     DateOnly `json:"week_end_date"`
	AvgWeightLbs    float64  `json:"avg_weight_lbs"`
	AvgCalories     float64  `json:"avg_calories"`
	WeightChangeLbs float64  `json:"weight_change_lbs"`
	CalculatedTDEE  float64  `json:"calculated_tdee"`
}

// adaptiveTDEEResult is the estimator's immutable output. Flat and
// JSON-serializable; WeeklyHistory holds at most the 8 most recent points.
type adaptiveTDEEResult struct {
	AdaptiveTDEE        float64           `json:"adaptive_tdee"`
	FormulaTDEE         int               `json:"formula_tdee"`
	Difference          float64           `json:"difference"`
	DifferencePercent   int               `json:"difference_percent"`
	Confidence          string            `json:"confidence"`
	ConfidenceScore     int               `json:"confidence_score"`
	DataPointCount      int               `json:"data_point_count"`
	RecommendedCalories int               `json:"recommended_calories"`
	MetabolismTrend     string            `json:"metabolism_trend"`
	WeeklyHistory       []weeklyDataPoint `json:"weekly_history"`
	LastCalculated      time.Time         `json:"last_calculated"`
}

// adaptiveResultRow maps to adaptive_tdee_results. Append-only: one row per
// estimator invocation, never updated. WeeklyHistory round-trips through a
// JSONB column via pgx's JSON codec.
type adaptiveResultRow struct {
	ID                  int               `json:"id" db:"id"`
	UserID              int               `json:"user_id" db:"user_id"`
	AdaptiveTDEE        float64           `json:"adaptive_tdee" db:"adaptive_tdee"`
	FormulaTDEE         int               `json:"formula_tdee" db:"formula_tdee"`
	Difference          float64           `json:"difference" db:"difference"`
	DifferencePercent   int               `json:"difference_percent" db:"difference_percent"`
	Confidence          string            `json:"confidence" db:"confidence"`
	ConfidenceScore     int               `json:"confidence_score" db:"confidence_score"`
	DataPointCount      int               `json:"data_point_count" db:"data_point_count"`
	RecommendedCalories int               `json:"recommended_calories" db:"recommended_calories"`
	MetabolismTrend     string            `json:"metabolism_trend" db:"metabolism_trend"`
	WeeklyHistory       []weeklyDataPoint `json:"weekly_history" db:"weekly_history"`
	CalculatedAt        time.Time         `json:"calculated_at" db:"calculated_at"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// upsertWeightEntryRequest is the body for POST /api/weight-log.
type upsertWeightEntryRequest struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"`
}

// upsertCalorieEntryRequest is the body for POST /api/calorie-log.
type upsertCalorieEntryRequest struct {
	Date             string  `json:"date"`
	CaloriesConsumed float64 `json:"calories_consumed"`
}

// patchProfileRequest is the body for PATCH /api/profile. All fields are
// pointers — only non-nil fields get written to the database.
type patchProfileRequest struct {
	HeightCM      *float64 `json:"height_cm"`
	Age           *int     `json:"age"`
	Sex           *string  `json:"sex"`
	ActivityLevel *string  `json:"activity_level"`
	GoalType      *string  `json:"goal_type"`
}

// estimatePreviewRequest is the body for POST /api/adaptive-tdee/preview —
// the estimator's raw input contract, bypassing the database entirely.
// Nil slices (absent JSON fields) fail validation; empty arrays are valid.
type estimatePreviewRequest struct {
	WeightHistory  []weightSample  `json:"weight_history"`
	CalorieHistory []calorieSample `json:"calorie_history"`
	Profile        *userProfile    `json:"profile"`
}
