package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"esg-backend/internal/config"
	"esg-backend/internal/db"
	httpSrv "esg-backend/internal/http"
	"esg-backend/internal/migrations"
	"esg-backend/internal/scoring"
	"esg-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.APIToken == "" {
		log.Printf("warning: API_TOKEN is not set; supplier routes will reject every request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run embedded migrations (idempotent)
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		log.Fatal(err)
	}

	dbase, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer dbase.Close()

	var archive scoring.Archiver
	if cfg.StorageEnabled() {
		s3c, err := storage.New(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		archive = s3c
		log.Printf("archiving submissions to bucket %s", cfg.MinioBucket)
	}

	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asq.Close()

	scores := scoring.New(db.NewRepo(dbase), archive)
	srv := httpSrv.NewServer(cfg, dbase, scores, asq)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}
}
