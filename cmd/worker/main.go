package main

import (
	"context"
	"log"
	"os"

	"clip-publisher/internal/db"
	"clip-publisher/internal/media"
	"clip-publisher/internal/models"
	"clip-publisher/internal/publish"
	"clip-publisher/internal/store"
	"clip-publisher/internal/worker"
	"clip-publisher/pkg/tasks"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
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

	graph := publish.NewGraphClient(os.Getenv("FACEBOOK_ACCESS_TOKEN"))
	publishers := map[string]publish.Publisher{
		string(models.PlatformFacebookPage):  publish.NewFacebookPage(graph),
		string(models.PlatformFacebookGroup): publish.NewFacebookGroup(graph),
	}

	if clientID := os.Getenv("YOUTUBE_CLIENT_ID"); clientID != "" {
		publishers[string(models.PlatformYouTube)] = publish.NewYouTube(
			clientID,
			os.Getenv("YOUTUBE_CLIENT_SECRET"),
			os.Getenv("YOUTUBE_REFRESH_TOKEN"),
		)
	}

	if botToken := os.Getenv("TELEGRAM_BOT_TOKEN"); botToken != "" {
		telegram, err := publish.NewTelegram(botToken)
		if err != nil {
			log.Printf("telegram adapter disabled: %v", err)
		} else {
			publishers[string(models.PlatformTelegram)] = telegram
		}
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			// Pipelines are independent; each runs on its own goroutine
			// with per-run scratch paths and store keys.
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(client, blobStore, media.NewDownloader(), media.NewComposer(), publishers, graph)

	mux.HandleFunc(tasks.TypePublishClip, taskHandler.HandlePublishClipTask)
	mux.HandleFunc(tasks.TypeApprovalCheck, taskHandler.HandleApprovalCheckTask)
	mux.HandleFunc(tasks.TypeLedgerSweep, taskHandler.HandleLedgerSweepTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
