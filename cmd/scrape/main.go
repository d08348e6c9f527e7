package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
	"github.com/bmtc-data/feedgen/internal/config"
	"github.com/bmtc-data/feedgen/internal/journal"
	"github.com/bmtc-data/feedgen/internal/scrape"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log.Println("Starting BMTC scrape...")

	cfg := config.Load()
	log.Printf("Config loaded: base_url=%s, workers=%d, raw_dir=%s", cfg.BaseURL, cfg.Workers, cfg.RawDir)

	client := bmtc.NewClient(cfg.BaseURL, cfg.RequestTimeout)
	store := artifact.NewStore(cfg.RawDir)

	var j *journal.Journal
	if cfg.JournalPath != "" {
		var err error
		j, err = journal.Open(cfg.JournalPath)
		if err != nil {
			log.Printf("Warning: journal disabled: %v", err)
		} else if err := j.EnsureSchema(context.Background()); err != nil {
			log.Printf("Warning: journal schema failed, journal disabled: %v", err)
			j.Close()
			j = nil
		} else {
			defer j.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := scrape.NewPipeline(client, store, cfg, j)
	if err := pipeline.Run(ctx); err != nil {
		log.Fatalf("Scrape failed: %v", err)
	}

	log.Println("Scrape complete")
}
