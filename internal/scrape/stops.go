package scrape

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
)

// fetchStopLists fetches the stop list of every distinct physical route.
// The endpoint takes the parent route id and answers with both directions at
// once, so routes are deduplicated by direction-stripped number and each
// direction with data becomes its own "{route} UP.json" / "{route} DOWN.json"
// artifact.
func (p *Pipeline) fetchStopLists(ctx context.Context, catalog []bmtc.Route, parents map[string]int) error {
	if err := p.store.EnsureDir(artifact.StopsDir); err != nil {
		return err
	}

	t := p.newTally(StageStops)

	seen := make(map[string]bool)
	var pending []string
	for _, route := range catalog {
		name := bmtc.StripDirection(route.RouteNo)
		if seen[name] {
			continue
		}
		seen[name] = true

		if p.store.Exists(artifact.StopsDir, name+" UP.json") ||
			p.store.Exists(artifact.StopsDir, name+" DOWN.json") {
			t.skip(1)
			continue
		}
		pending = append(pending, name)
	}
	sort.Strings(pending)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, name := range pending {
		name := name
		g.Go(func() error {
			p.fetchStopList(gctx, name, parents, t)
			return nil
		})
	}
	g.Wait()

	t.logSummary()
	return nil
}

func (p *Pipeline) fetchStopList(ctx context.Context, route string, parents map[string]int, t *tally) {
	parentID, ok := parents[route]
	if !ok {
		t.fail(ctx, route, fmt.Errorf("no parent route id in directory"))
		return
	}

	req := bmtc.RouteDetailsRequest{RouteID: parentID, ServiceTypeID: 0}
	var resp bmtc.StopsResponse
	raw, err := p.postJSON(ctx, t, bmtc.EndpointRouteDetails, req, &resp)
	if err != nil {
		t.fail(ctx, route, err)
		return
	}
	if resp.EmptyResult() {
		t.noRecords(ctx, route)
		return
	}

	wrote := false
	if len(resp.Up.Data) > 0 {
		if err := p.store.Write(raw, artifact.StopsDir, route+" UP.json"); err != nil {
			t.fail(ctx, route, err)
			return
		}
		wrote = true
	}
	if len(resp.Down.Data) > 0 {
		if err := p.store.Write(raw, artifact.StopsDir, route+" DOWN.json"); err != nil {
			t.fail(ctx, route, err)
			return
		}
		wrote = true
	}

	if !wrote {
		t.noRecords(ctx, route)
		return
	}
	t.ok(ctx, route)
}
