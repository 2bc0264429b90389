package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// getCalorieLog returns daily intake entries for the authenticated user within [start, end].
// GET /api/calorie-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getCalorieLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	if _, err := time.Parse("2006-01-02", start); err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start > end {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := queryMany[calorieLogEntry](h.db, c,
		`SELECT * FROM calorie_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch calorie log")
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []calorieLogEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertCalorieEntry creates or updates the day's total intake entry.
// POST /api/calorie-log. Body: { "date": "YYYY-MM-DD", "calories_consumed": 2150 }.
// One row per user per day — posting the same date updates in place via the
// UNIQUE(user_id, date) constraint, matching how intake apps re-sync a day.
func (h *Handler) upsertCalorieEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body upsertCalorieEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.CaloriesConsumed < 0 || body.CaloriesConsumed > 50000 {
		apiError(c, http.StatusBadRequest, "calories_consumed must be between 0 and 50000")
		return
	}

	entry, err := queryOne[calorieLogEntry](h.db, c,
		`INSERT INTO calorie_log (user_id, date, calories_consumed)
		 VALUES (@userID, @date, @calories)
		 ON CONFLICT (user_id, date) DO UPDATE SET calories_consumed = EXCLUDED.calories_consumed
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": body.Date, "calories": body.CaloriesConsumed})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to upsert calorie entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateCalorieEntry partially updates an existing calorie entry.
// PUT /api/calorie-log/:id. Body: { "date"?, "calories_consumed"? }.
// Uses COALESCE so omitted fields keep their current values.
func (h *Handler) updateCalorieEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date             *string  `json:"date"`
		CaloriesConsumed *float64 `json:"calories_consumed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.CaloriesConsumed != nil && (*body.CaloriesConsumed < 0 || *body.CaloriesConsumed > 50000) {
		apiError(c, http.StatusBadRequest, "calories_consumed must be between 0 and 50000")
		return
	}

	entry, err := queryOne[calorieLogEntry](h.db, c,
		`UPDATE calorie_log SET
			date              = COALESCE(@date, date),
			calories_consumed = COALESCE(@calories, calories_consumed)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": body.Date, "calories": body.CaloriesConsumed})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "calorie entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update calorie entry")
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteCalorieEntry removes a calorie log entry by ID.
// DELETE /api/calorie-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteCalorieEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM calorie_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete calorie entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "calorie entry not found")
		return
	}

	c.Status(http.StatusNoContent)
}
