package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server"
	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/dmitrijs2005/mpmonitor/internal/server/reaper"
	"github.com/hibiken/asynq"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, os.Stdout).With("module", "worker")

	if !server.RedisEnabled(cfg) {
		log.Fatal("worker needs a Redis address (MPM_REDIS_ADDR or -r)")
	}

	store, err := server.NewBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	srv := asynq.NewServer(server.AsynqRedisOpt(cfg), asynq.Config{
		Concurrency: 4,
		Logger:      reaper.NewAsynqLogger(logger),
	})

	logger.Info(ctx, "Starting reaper worker", "redis", cfg.RedisAddr)
	if err := srv.Run(reaper.NewServeMux(reaper.NewHandler(store, logger))); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
