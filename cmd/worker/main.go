package main

import (
	"context"
	"log"

	"esg-backend/internal/config"
	"esg-backend/internal/db"
	"esg-backend/internal/scoring"
	"esg-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Start services
	dbase, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer dbase.Close()

	// Recompute jobs never touch the archive.
	scores := scoring.New(db.NewRepo(dbase), nil)
	log.Printf("worker: redis=%s concurrency=%d", cfg.RedisAddr, cfg.WorkerConcurrency)
	if err := worker.Run(cfg.RedisAddr, cfg.WorkerConcurrency, scores); err != nil {
		log.Fatal(err)
	}
}
