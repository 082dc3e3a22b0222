package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mixtli/internal/db"
	"mixtli/internal/server"
)

func main() {
	// Local development convenience; in production the environment is
	// injected by the platform and no .env file exists.
	_ = godotenv.Load()

	cfg := server.LoadConfig()

	// Database
	dbConn, err := server.OpenDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Printf("service=mixtli msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=mixtli msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=mixtli msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}

	// Object store
	mc, bucket, err := server.NewMinioClient()
	if err != nil {
		log.Printf("service=mixtli msg=%q err=%v", "minio_init_failed", err)
		os.Exit(1)
	}
	store := server.NewObjectStore(mc, bucket)

	srv := server.New(cfg, dbConn, store)

	// Lifecycle cleaner runs until the root context is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Cleaner(cfg.CleanupInterval).Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=mixtli msg=%q addr=%s version=%s", "starting", cfg.Addr, cfg.Version)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=mixtli msg=%q signal=%s", "shutting_down", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("service=mixtli msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=mixtli msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=mixtli msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}
