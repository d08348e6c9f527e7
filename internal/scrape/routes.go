package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
)

// fetchRouteCatalog fetches GetAllRouteList and writes it verbatim as
// routes.json. An existing artifact is reused without a network call. Any
// failure here aborts the pipeline: every later stage iterates the catalog.
func (p *Pipeline) fetchRouteCatalog(ctx context.Context) ([]bmtc.Route, error) {
	t := p.newTally(StageCatalog)

	if p.store.Exists(artifact.RoutesFile) {
		log.Printf("%s: routes.json already on disk, skipping fetch", StageCatalog)
		return p.loadCatalog()
	}

	var resp bmtc.RouteListResponse
	raw, err := p.postJSON(ctx, t, bmtc.EndpointRouteList, nil, &resp)
	if err != nil {
		t.fail(ctx, artifact.RoutesFile, err)
		return nil, err
	}
	if resp.EmptyResult() {
		err := fmt.Errorf("no routes returned: %s", resp.Message)
		t.fail(ctx, artifact.RoutesFile, err)
		return nil, err
	}

	if err := p.store.Write(raw, artifact.RoutesFile); err != nil {
		t.fail(ctx, artifact.RoutesFile, err)
		return nil, err
	}
	t.ok(ctx, artifact.RoutesFile)
	return resp.Data, nil
}

// loadCatalog parses the routes.json artifact already on disk
func (p *Pipeline) loadCatalog() ([]bmtc.Route, error) {
	raw, err := p.store.Read(artifact.RoutesFile)
	if err != nil {
		return nil, err
	}
	var resp bmtc.RouteListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed routes.json: %w", err)
	}
	return resp.Data, nil
}

// fetchRouteDirectory probes the route search endpoint with every character
// of the configured alphabet, persisting each non-empty response, then merges
// all directory artifacts on disk into a routeno -> routeparentid map (first
// writer wins on duplicates). The stop-list stage needs the parent ids
// because its endpoint only accepts them.
func (p *Pipeline) fetchRouteDirectory(ctx context.Context) (map[string]int, error) {
	if err := p.store.EnsureDir(artifact.RouteIDsDir); err != nil {
		return nil, err
	}

	t := p.newTally(StageDirectory)

	for _, c := range p.cfg.RouteSearchAlphabet {
		prefix := string(c)
		name := prefix + ".json"
		if p.store.Exists(artifact.RouteIDsDir, name) {
			t.skip(1)
			continue
		}

		var resp bmtc.SearchRouteResponse
		raw, err := p.postJSON(ctx, t, bmtc.EndpointSearchRoute, bmtc.SearchRouteRequest{RouteText: prefix}, &resp)
		if err != nil {
			t.fail(ctx, prefix, err)
			continue
		}
		if resp.EmptyResult() {
			t.noRecords(ctx, prefix)
			continue
		}

		if err := p.store.Write(raw, artifact.RouteIDsDir, name); err != nil {
			t.fail(ctx, prefix, err)
			continue
		}
		t.ok(ctx, prefix)
	}
	t.logSummary()

	return p.mergeRouteDirectory()
}

// mergeRouteDirectory folds every directory artifact into one parent-id map
func (p *Pipeline) mergeRouteDirectory() (map[string]int, error) {
	names, err := p.store.List(artifact.RouteIDsDir)
	if err != nil {
		return nil, err
	}

	parents := make(map[string]int)
	for _, name := range names {
		raw, err := p.store.Read(artifact.RouteIDsDir, name)
		if err != nil {
			log.Printf("%s: failed to read %s: %v", StageDirectory, name, err)
			continue
		}
		var resp bmtc.SearchRouteResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			log.Printf("%s: malformed artifact %s: %v", StageDirectory, name, err)
			continue
		}
		for _, route := range resp.Data {
			if _, ok := parents[route.RouteNo]; !ok {
				parents[route.RouteNo] = route.RouteParentID
			}
		}
	}

	log.Printf("%s: %d route numbers mapped to parent ids", StageDirectory, len(parents))
	return parents, nil
}
