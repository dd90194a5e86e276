package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"clip-publisher/internal/db"
	"clip-publisher/internal/handlers"
	"clip-publisher/internal/middleware"
	"clip-publisher/internal/publish"
	"clip-publisher/internal/store"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	db.InitDB()

	blobStore, err := store.New(context.Background())
	if err != nil {
		log.Fatalf("could not create blob store: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer client.Close()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	defer inspector.Close()

	graph := publish.NewGraphClient(os.Getenv("FACEBOOK_ACCESS_TOKEN"))

	h := handlers.New(client, inspector, blobStore, graph)
	rateLimiter := middleware.NewRateLimiterMiddleware(rate.Limit(5), 10)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimiter.Middleware)
	api.HandleFunc("/schedule-post", h.SchedulePost).Methods(http.MethodPost)
	api.HandleFunc("/schedule-post/{jobId}", h.CancelScheduledPost).Methods(http.MethodDelete)
	api.HandleFunc("/targets", h.GetTargets).Methods(http.MethodGet)
	api.HandleFunc("/targets", h.PostTarget).Methods(http.MethodPost)
	api.HandleFunc("/targets/{platform}/{id}", h.DeleteTarget).Methods(http.MethodDelete)
	api.HandleFunc("/pending-posts", h.GetPendingPosts).Methods(http.MethodGet)
	api.HandleFunc("/facebook-pages", h.GetFacebookPages).Methods(http.MethodGet)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on :%s (commit: %s)", port, CommitSHA)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}
