// Package scrape implements the five-stage fetch pipeline that harvests the
// BMTC WebAPI into the raw artifact store: route catalog, route-id directory,
// route shapes, per-day timetables and stop lists. Stages run in a fixed
// order because later stages consume earlier artifacts; within a stage,
// tasks run on a bounded worker pool and every task failure is isolated,
// logged, journaled and never aborts its siblings.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
	"github.com/bmtc-data/feedgen/internal/config"
	"github.com/bmtc-data/feedgen/internal/journal"
	"github.com/bmtc-data/feedgen/internal/metrics"
)

// Stage names used in logs and the journal
const (
	StageCatalog    = "route-catalog"
	StageDirectory  = "route-directory"
	StageShapes     = "route-shapes"
	StageTimetables = "timetables"
	StageStops      = "stop-lists"
)

// Pipeline drives the five fetch stages against one artifact store
type Pipeline struct {
	client  *bmtc.Client
	store   *artifact.Store
	cfg     *config.Config
	journal *journal.Journal

	runID string
	now   func() time.Time // injectable for tests
}

// NewPipeline creates a pipeline over the given client and store
func NewPipeline(client *bmtc.Client, store *artifact.Store, cfg *config.Config, j *journal.Journal) *Pipeline {
	return &Pipeline{
		client:  client,
		store:   store,
		cfg:     cfg,
		journal: j,
		now:     time.Now,
	}
}

// Run executes all stages in order. Only a route catalog failure is fatal:
// without the catalog nothing downstream can be scheduled. Every other
// failure is contained within its task or stage.
func (p *Pipeline) Run(ctx context.Context) error {
	runID, err := p.journal.StartRun(ctx, journal.KindScrape)
	if err != nil {
		log.Printf("Warning: journal unavailable, continuing without it: %v", err)
	}
	p.runID = runID

	catalog, err := p.fetchRouteCatalog(ctx)
	if err != nil {
		return fmt.Errorf("route catalog: %w", err)
	}
	log.Printf("Route catalog: %d routes", len(catalog))

	parents, err := p.fetchRouteDirectory(ctx)
	if err != nil {
		return fmt.Errorf("route directory: %w", err)
	}

	if err := p.fetchRouteLines(ctx, catalog); err != nil {
		return fmt.Errorf("route shapes: %w", err)
	}

	if err := p.fetchTimetables(ctx, catalog); err != nil {
		return fmt.Errorf("timetables: %w", err)
	}

	if err := p.fetchStopLists(ctx, catalog, parents); err != nil {
		return fmt.Errorf("stop lists: %w", err)
	}

	return nil
}

// tally aggregates one stage's task outcomes: counters for the summary log
// line, request latency stats, and journal rows per task.
type tally struct {
	p     *Pipeline
	stage string

	mu      sync.Mutex
	success int
	empty   int
	failure int
	skipped int

	latency metrics.Latency
}

func (p *Pipeline) newTally(stage string) *tally {
	return &tally{p: p, stage: stage}
}

func (t *tally) observe(d time.Duration) {
	t.latency.Observe(d)
}

func (t *tally) skip(n int) {
	t.mu.Lock()
	t.skipped += n
	t.mu.Unlock()
}

func (t *tally) ok(ctx context.Context, key string) {
	t.mu.Lock()
	t.success++
	t.mu.Unlock()
	t.record(ctx, key, journal.OutcomeSuccess, "")
}

func (t *tally) noRecords(ctx context.Context, key string) {
	t.mu.Lock()
	t.empty++
	t.mu.Unlock()
	t.record(ctx, key, journal.OutcomeEmpty, "")
}

func (t *tally) fail(ctx context.Context, key string, err error) {
	t.mu.Lock()
	t.failure++
	t.mu.Unlock()
	log.Printf("%s: task %s failed: %v", t.stage, key, err)
	t.record(ctx, key, journal.OutcomeFailure, err.Error())
}

func (t *tally) record(ctx context.Context, key, outcome, detail string) {
	if err := t.p.journal.RecordTask(ctx, t.p.runID, t.stage, key, outcome, detail); err != nil {
		log.Printf("Warning: failed to journal %s/%s: %v", t.stage, key, err)
	}
}

// logSummary emits the per-stage success/failure count line
func (t *tally) logSummary() {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Printf("%s: %d fetched, %d empty, %d failed, %d already on disk (%s)",
		t.stage, t.success, t.empty, t.failure, t.skipped, t.latency.String())
}

// postJSON performs one timed request and decodes the response into out,
// returning the raw body for verbatim artifact storage
func (p *Pipeline) postJSON(ctx context.Context, t *tally, endpoint string, payload, out interface{}) ([]byte, error) {
	start := time.Now()
	raw, err := p.client.Post(ctx, endpoint, payload)
	t.observe(time.Since(start))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return raw, nil
}
