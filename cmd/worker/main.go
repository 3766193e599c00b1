package main

import (
	"context"
	"time"

	"bookforge/internal/activities"
	"bookforge/internal/blob"
	"bookforge/internal/config"
	"bookforge/internal/llm"
	"bookforge/internal/logger"
	"bookforge/internal/storage"
	"bookforge/internal/workflows"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	c, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal("dial temporal", "error", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("connect postgres", "error", err)
	}
	defer db.Close()

	blobs, err := blob.Open(ctx, log, cfg.BlobBackend, cfg.GCSBucket, cfg.BlobDir)
	if err != nil {
		log.Fatal("open blob store", "error", err)
	}
	client := llm.NewXAIClient(cfg.XAIAPIKey, cfg.XAIBaseURL, cfg.XAIModel)

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, log, db, blobs, client))

	log.Info("bookforge worker listening", "temporal", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "model", cfg.XAIModel)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("run worker", "error", err)
	}
}
