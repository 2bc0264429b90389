package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	log.SetPrefix("hc/health-tracker-go-api: ")
	log.SetFlags(0)

	// .env is optional — in deployment the env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment as-is")
	}

	h := &Handler{
		db:            getDBPool(),
		openAIBaseURL: openAIBaseURL(),
	}
	defer h.db.Close()

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	if os.Getenv("ENABLE_WEEKLY_RECALC") == "true" {
		recalc := startWeeklyRecalc(h)
		defer recalc.Stop()
	}

	// gin.Engine is an http.Handler, so the CORS layer wraps the whole router.
	// The frontend is served from a different origin than the API.
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal(err)
	}
}

// openAIBaseURL returns the OpenAI endpoint, overridable for tests and proxies.
func openAIBaseURL() string {
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		return url
	}
	return "https://api.openai.com"
}
