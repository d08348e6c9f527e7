package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bmtc-data/feedgen/internal/archive"
	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/config"
	"github.com/bmtc-data/feedgen/internal/gtfs"
	"github.com/bmtc-data/feedgen/internal/journal"
	"github.com/bmtc-data/feedgen/internal/synth"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	rawDir := flag.String("raw-dir", cfg.RawDir, "Directory containing raw scrape artifacts")
	reportDir := flag.String("report-dir", cfg.ReportDir, "Output directory for skip reports")
	modelOut := flag.String("model-json", "", "If set, dump the built schedule model as JSON to this path")
	skipArchive := flag.Bool("skip-archive", false, "Leave raw artifacts uncompressed after a successful build")
	flag.Parse()

	cfg.RawDir = *rawDir
	cfg.ReportDir = *reportDir

	log.Printf("Building feed from %s (timetable weekday: %s)", cfg.RawDir, cfg.TimetableWeekday)

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

	ctx := context.Background()

	synthesizer := synth.New(store, cfg, j)
	result, err := synthesizer.Run(ctx)
	if err != nil {
		log.Fatalf("Synthesis failed: %v", err)
	}

	schedule := result.Schedule
	log.Printf("Model: %d stops, %d routes, %d shapes, %d trips",
		len(schedule.Stops), len(schedule.Routes), len(schedule.Shapes), len(schedule.Trips))

	if violations := schedule.Validate(); len(violations) > 0 {
		for _, v := range violations {
			log.Printf("Validation: %v", v)
		}
		log.Fatalf("Validation failed with %d violations, feed not exported", len(violations))
	}
	log.Println("Validation passed")

	// The feed exporter consumes the in-memory model; the optional JSON dump
	// exists for inspection and downstream tooling.
	if *modelOut != "" {
		if err := dumpModel(schedule, *modelOut); err != nil {
			log.Fatalf("Failed to dump model: %v", err)
		}
		log.Printf("Model written to %s", *modelOut)
	}

	if *skipArchive {
		log.Println("Skipping raw artifact archival")
		return
	}

	if err := archive.CompactRaw(cfg.RawDir); err != nil {
		log.Fatalf("Archival failed: %v", err)
	}
	log.Println("Raw artifacts archived")
}

func dumpModel(schedule *gtfs.Schedule, path string) error {
	data, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
