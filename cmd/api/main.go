package main

import (
	"context"
	"net/http"
	"time"

	"bookforge/internal/api"
	"bookforge/internal/auth"
	"bookforge/internal/blob"
	"bookforge/internal/chat"
	"bookforge/internal/config"
	"bookforge/internal/llm"
	"bookforge/internal/logger"
	"bookforge/internal/storage"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

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

	tokens, err := auth.NewTokenService(cfg.JWTSecret, 0)
	if err != nil {
		log.Fatal("init token service", "error", err)
	}

	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal("dial temporal", "error", err)
	}
	defer tc.Close()

	client := llm.NewXAIClient(cfg.XAIAPIKey, cfg.XAIBaseURL, cfg.XAIModel)
	chatSvc := chat.NewService(log, storage.NewDocumentRepo(db), storage.NewChunkRepo(db), client, cfg.ChatChunkLimit)

	srv := api.NewServer(cfg, log, db, blobs, chatSvc, tokens, tc)
	log.Info("bookforge api listening", "addr", cfg.APIAddr, "blob_backend", cfg.BlobBackend, "model", cfg.XAIModel)
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		log.Fatal("serve http", "error", err)
	}
}
