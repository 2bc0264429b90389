package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
)

// startWeeklyRecalc schedules a Monday 06:00 UTC job that re-runs the
// estimator for every user with a profile and appends a fresh result row, so
// trend history keeps accruing even for users who never hit the estimate
// endpoint. Opt-in via ENABLE_WEEKLY_RECALC; returns the started cron so the
// caller owns its lifetime.
func startWeeklyRecalc(h *Handler) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc("0 6 * * 1", func() { h.recalcAllUsers(context.Background()) }); err != nil {
		log.Printf("[recalc] failed to schedule weekly job: %v", err)
		return c
	}
	c.Start()
	log.Println("[recalc] weekly recalculation scheduled (Mon 06:00 UTC)")
	return c
}

// recalcAllUsers runs one estimator pass per profiled user. Per-user failures
// are logged and skipped — one user's incomplete profile must not stall the
// rest of the batch.
func (h *Handler) recalcAllUsers(ctx context.Context) {
	userIDs, err := queryMany[struct {
		UserID int `db:"user_id"`
	}](h.db, ctx, "SELECT user_id FROM user_profiles ORDER BY user_id", pgx.NamedArgs{})
	if err != nil {
		log.Printf("[recalc] failed to list users: %v", err)
		return
	}

	var done, skipped int
	for _, row := range userIDs {
		if err := h.recalcUser(ctx, row.UserID); err != nil {
			log.Printf("[recalc] user %d skipped: %v", row.UserID, err)
			skipped++
			continue
		}
		done++
	}
	log.Printf("[recalc] finished: %d recalculated, %d skipped", done, skipped)
}

// recalcUser loads one user's logs and profile, runs the pure estimator, and
// appends the result row.
func (h *Handler) recalcUser(ctx context.Context, userID int) error {
	weights, calories, profile, err := h.loadEstimatorInput(ctx, userID)
	if err != nil {
		return err
	}

	result, err := estimateAdaptiveTDEE(weights, calories, profile, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = h.insertResultRow(ctx, userID, result)
	return err
}
