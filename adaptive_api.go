package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ─── Shared load/persist helpers (also used by the weekly recalc job) ── */

// loadEstimatorInput fetches a user's full weight history, calorie history,
// and profile. Histories come back as non-nil slices even when empty — a user
// with no logs is valid estimator input, a user with no profile row is not.
func (h *Handler) loadEstimatorInput(ctx context.Context, userID int) ([]weightSample, []calorieSample, *userProfile, error) {
	weights, err := queryMany[weightSample](h.db, ctx,
		`SELECT date, weight, unit FROM weight_log
		 WHERE user_id = @userID ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, nil, nil, err
	}
	if weights == nil {
		weights = []weightSample{}
	}

	calories, err := queryMany[calorieSample](h.db, ctx,
		`SELECT date, calories_consumed FROM calorie_log
		 WHERE user_id = @userID ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, nil, nil, err
	}
	if calories == nil {
		calories = []calorieSample{}
	}

	profile, err := queryOne[userProfile](h.db, ctx,
		"SELECT * FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, nil, nil, err
	}

	return weights, calories, &profile, nil
}

// insertResultRow appends one immutable adaptive_tdee_results row. Results are
// never updated in place — each estimator run adds a new historical record.
// WeeklyHistory is marshaled explicitly: the simple query protocol can't infer
// a wire type for a struct slice, but a JSON string coerces cleanly to jsonb.
func (h *Handler) insertResultRow(ctx context.Context, userID int, res *adaptiveTDEEResult) (adaptiveResultRow, error) {
	history, err := json.Marshal(res.WeeklyHistory)
	if err != nil {
		return adaptiveResultRow{}, err
	}
	return queryOne[adaptiveResultRow](h.db, ctx,
		`INSERT INTO adaptive_tdee_results
			(user_id, adaptive_tdee, formula_tdee, difference, difference_percent,
			 confidence, confidence_score, data_point_count, recommended_calories,
			 metabolism_trend, weekly_history, calculated_at)
		 VALUES
			(@userID, @adaptiveTDEE, @formulaTDEE, @difference, @differencePercent,
			 @confidence, @confidenceScore, @dataPointCount, @recommendedCalories,
			 @metabolismTrend, @weeklyHistory, @calculatedAt)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID":              userID,
			"adaptiveTDEE":        res.AdaptiveTDEE,
			"formulaTDEE":         res.FormulaTDEE,
			"difference":          res.Difference,
			"differencePercent":   res.DifferencePercent,
			"confidence":          res.Confidence,
			"confidenceScore":     res.ConfidenceScore,
			"dataPointCount":      res.DataPointCount,
			"recommendedCalories": res.RecommendedCalories,
			"metabolismTrend":     res.MetabolismTrend,
			"weeklyHistory":       string(history),
			"calculatedAt":        res.LastCalculated,
		})
}

// estimatorErrorStatus maps estimator input errors to HTTP status codes.
// Everything the estimator rejects is a client-input problem, not a server one.
func estimatorErrorStatus(err error) int {
	switch {
	case errors.Is(err, errMissingWeightHistory),
		errors.Is(err, errMissingCalorieHistory),
		errors.Is(err, errMissingProfile),
		errors.Is(err, errIncompleteProfile):
		return http.StatusBadRequest
	case errors.Is(err, errDegenerateProfile):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// estimateTDEE runs the adaptive estimator over the user's stored logs and
// appends the result as a new historical row.
// POST /api/adaptive-tdee/estimate. No request body — inputs come from the DB.
// A persistence failure is logged but does not suppress the computed result:
// the estimate was already produced and the requester should get it.
func (h *Handler) estimateTDEE(c *gin.Context) {
	userID := c.GetInt("user_id")

	weights, calories, profile, err := h.loadEstimatorInput(c, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to load estimator input")
		}
		return
	}

	result, err := estimateAdaptiveTDEE(weights, calories, profile, time.Now().UTC())
	if err != nil {
		apiError(c, estimatorErrorStatus(err), err.Error())
		return
	}

	if _, err := h.insertResultRow(c, userID, result); err != nil {
		log.Printf("[estimate] failed to persist result for user %d: %v", userID, err)
	}

	c.JSON(http.StatusOK, result)
}

// previewTDEE runs the estimator over caller-supplied histories and profile
// without touching the database. POST /api/adaptive-tdee/preview.
// Useful for what-if runs ("what would my numbers look like with these logs")
// and as the raw input contract for external callers.
func (h *Handler) previewTDEE(c *gin.Context) {
	var body estimatePreviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := estimateAdaptiveTDEE(body.WeightHistory, body.CalorieHistory, body.Profile, time.Now().UTC())
	if err != nil {
		apiError(c, estimatorErrorStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// getTDEEHistory returns the user's stored estimator results, newest first.
// GET /api/adaptive-tdee/history?limit=N (default 12, max 100).
func (h *Handler) getTDEEHistory(c *gin.Context) {
	userID := c.GetInt("user_id")

	limit := 12
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			apiError(c, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	rows, err := queryMany[adaptiveResultRow](h.db, c,
		`SELECT * FROM adaptive_tdee_results
		 WHERE user_id = @userID
		 ORDER BY calculated_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch result history")
		return
	}
	// Ensure empty array (not null) in JSON
	if rows == nil {
		rows = []adaptiveResultRow{}
	}

	c.JSON(http.StatusOK, rows)
}
