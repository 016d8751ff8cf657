package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"uptask-api/config"
	"uptask-api/storage"
)

func main() {
	cfg, err := config.LoadStorage()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Info("storage init starting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := storage.CreateTables(ctx, cfg.StorageConnectionString, cfg.Tables()...); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if cfg.EventsQueue != "" {
		if err := storage.CreateQueues(ctx, cfg.StorageConnectionString, cfg.EventsQueue); err != nil {
			log.Fatalf("create queues: %v", err)
		}
	}

	log.Info("storage init complete")
}
