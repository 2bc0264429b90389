package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// setupPreviewTest creates a Gin engine with the preview route mounted behind
// a stub auth middleware. The preview path never touches the database, so no
// pool is needed.
func setupPreviewTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handler{}
	router := gin.New()
	router.POST("/api/adaptive-tdee/preview", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}, h.previewTDEE)
	return router
}

// doPreviewRequest sends a POST to the preview endpoint with the given body.
func doPreviewRequest(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/adaptive-tdee/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestPreview_FormulaOnly: a complete profile with empty histories returns a
// formula-backed result over the wire.
func TestPreview_FormulaOnly(t *testing.T) {
	router := setupPreviewTest()

	body := `{
		"weight_history": [],
		"calorie_history": [],
		"profile": {"height_cm": 175, "age": 30, "sex": "male", "activity_level": "moderate", "goal_type": "lose"}
	}`
	w := doPreviewRequest(router, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var res adaptiveTDEEResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.FormulaTDEE != 1471 {
		t.Errorf("formulaTDEE = %d, want 1471", res.FormulaTDEE)
	}
	if res.AdaptiveTDEE != float64(res.FormulaTDEE) {
		t.Errorf("adaptiveTDEE = %f, want formula fallback %d", res.AdaptiveTDEE, res.FormulaTDEE)
	}
	if res.DataPointCount != 0 || res.Confidence != "low" {
		t.Errorf("dataPointCount/confidence = %d/%s, want 0/low", res.DataPointCount, res.Confidence)
	}
}

// TestPreview_WithHistory: three qualifying weeks flow through the full
// pipeline via the wire contract.
func TestPreview_WithHistory(t *testing.T) {
	router := setupPreviewTest()

	ws, cs := appendWeeks(
		week("2026-01-04", 180, 2000),
		week("2026-01-11", 179, 2000),
		week("2026-01-18", 178, 2000),
	)
	payload, err := json.Marshal(estimatePreviewRequest{
		WeightHistory:  ws,
		CalorieHistory: cs,
		Profile:        makeProfile("male", 30, 175, "moderate", "maintain"),
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	w := doPreviewRequest(router, string(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var res adaptiveTDEEResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.DataPointCount != 2 {
		t.Errorf("dataPointCount = %d, want 2", res.DataPointCount)
	}
	if !approxEqual(res.AdaptiveTDEE, 2500, 0.001) {
		t.Errorf("adaptiveTDEE = %f, want ~2500", res.AdaptiveTDEE)
	}
}

// TestPreview_MissingInputs: each absent top-level field is a 400 with the
// estimator's own message.
func TestPreview_MissingInputs(t *testing.T) {
	router := setupPreviewTest()

	cases := []struct {
		name string
		body string
	}{
		{"no weight history", `{"calorie_history": [], "profile": {"height_cm": 175, "age": 30, "sex": "male", "activity_level": "moderate", "goal_type": "lose"}}`},
		{"no calorie history", `{"weight_history": [], "profile": {"height_cm": 175, "age": 30, "sex": "male", "activity_level": "moderate", "goal_type": "lose"}}`},
		{"no profile", `{"weight_history": [], "calorie_history": []}`},
		{"incomplete profile", `{"weight_history": [], "calorie_history": [], "profile": {"height_cm": 175}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doPreviewRequest(router, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

// TestPreview_DegenerateProfile maps the degenerate-profile rejection to 422.
func TestPreview_DegenerateProfile(t *testing.T) {
	router := setupPreviewTest()

	body := `{
		"weight_history": [],
		"calorie_history": [],
		"profile": {"height_cm": 1, "age": 130, "sex": "female", "activity_level": "sedentary", "goal_type": "maintain"}
	}`
	w := doPreviewRequest(router, body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body: %s", w.Code, w.Body.String())
	}
}

// TestPreview_MalformedBody: non-JSON input is a 400 before the estimator runs.
func TestPreview_MalformedBody(t *testing.T) {
	router := setupPreviewTest()

	w := doPreviewRequest(router, `{"weight_history": "not an array"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// TestEstimatorErrorStatus pins the error-to-status mapping used by both the
// estimate and preview handlers.
func TestEstimatorErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errMissingWeightHistory, http.StatusBadRequest},
		{errMissingCalorieHistory, http.StatusBadRequest},
		{errMissingProfile, http.StatusBadRequest},
		{errIncompleteProfile, http.StatusBadRequest},
		{errDegenerateProfile, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		if got := estimatorErrorStatus(tc.err); got != tc.want {
			t.Errorf("estimatorErrorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
