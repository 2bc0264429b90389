package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ─── Response types ─────────────────────────────────────────────────── */

// insightsResponse is the structured commentary returned by the AI about the
// user's most recent adaptive TDEE result.
type insightsResponse struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

/* ─── OpenAI prompt constants ────────────────────────────────────────── */

const insightsSystemPrompt = `You are a metabolism coach. You will receive the output of an adaptive TDEE estimator as JSON fields. Return a JSON object with:
- "summary" (string, 2-3 plain-language sentences explaining what the numbers mean for this user)
- "suggestions" (array of 1-3 short, concrete strings the user can act on)

Ground every statement in the provided numbers. If confidence is "low", say the estimate is preliminary and the most useful action is logging weight and calories more consistently. Never prescribe below the recommended calories value. Do not mention BMR formulas by name.
Return only valid JSON, no explanation.`

// insightsUserPromptTemplate flattens the stored result into labelled lines —
// easier for the model to ground on than nested JSON.
const insightsUserPromptTemplate = `Adaptive TDEE: %.0f kcal/day
Formula TDEE: %d kcal/day
Difference: %.0f kcal/day (%d%%)
Metabolism trend: %s
Recommended daily calories: %d
Confidence: %s (score %d/100)
Weekly data points used: %d
Goal: %s`

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

// openAIMessage is a single message in the OpenAI chat completions request.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the request body for the OpenAI chat completions API.
type openAIRequest struct {
	Model          string                 `json:"model"`
	Messages       []openAIMessage        `json:"messages"`
	Temperature    float64                `json:"temperature"`
	ResponseFormat map[string]interface{} `json:"response_format"`
}

// callOpenAI sends a chat completions request and returns the raw content string
// from the first choice. Uses raw net/http to avoid pulling in the OpenAI SDK.
func callOpenAI(ctx context.Context, messages []openAIMessage, baseURL string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	reqBody := openAIRequest{
		Model:       "gpt-4o-mini",
		Messages:    messages,
		Temperature: 0,
		ResponseFormat: map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	// Parse the response to extract choices[0].message.content
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── Handler ────────────────────────────────────────────────────────── */

// getTDEEInsights handles POST /api/adaptive-tdee/insights.
// Feeds the user's most recent stored estimator result to OpenAI and returns
// short natural-language commentary. The estimator itself never generates
// prose — this is a separate consumer of its stored output.
func (h *Handler) getTDEEInsights(c *gin.Context) {
	userID := c.GetInt("user_id")

	row, err := queryOne[adaptiveResultRow](h.db, c,
		`SELECT * FROM adaptive_tdee_results
		 WHERE user_id = @userID
		 ORDER BY calculated_at DESC
		 LIMIT 1`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "no estimator results yet — run an estimate first")
		return
	}

	goalType := h.lookupGoalType(c, userID)

	userPrompt := fmt.Sprintf(insightsUserPromptTemplate,
		row.AdaptiveTDEE, row.FormulaTDEE, row.Difference, row.DifferencePercent,
		row.MetabolismTrend, row.RecommendedCalories,
		row.Confidence, row.ConfidenceScore, row.DataPointCount, goalType)

	messages := []openAIMessage{
		{Role: "system", Content: insightsSystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	content, err := callOpenAI(c.Request.Context(), messages, h.openAIBaseURL)
	if err != nil {
		log.Printf("[insights] OpenAI error: %v", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	var insights insightsResponse
	if err := json.Unmarshal([]byte(content), &insights); err != nil {
		log.Printf("[insights] Failed to parse insights JSON: %v", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}
	if insights.Summary == "" {
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	c.JSON(http.StatusOK, insights)
}

// lookupGoalType fetches the user's goal for the prompt. Falls back to
// "maintain" when the profile is missing or incomplete — commentary still
// works, it's just less specific.
func (h *Handler) lookupGoalType(c *gin.Context, userID int) string {
	if h.db == nil {
		return "maintain"
	}
	p, err := queryOne[userProfile](h.db, c,
		"SELECT * FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil || p.GoalType == nil {
		return "maintain"
	}
	return *p.GoalType
}
