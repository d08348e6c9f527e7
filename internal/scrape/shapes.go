package scrape

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
)

// fetchRouteLines fetches the polyline of every catalog route not already on
// disk, 20 requests in flight at a time. Empty responses create no artifact
// so a later run will try the route again.
func (p *Pipeline) fetchRouteLines(ctx context.Context, catalog []bmtc.Route) error {
	if err := p.store.EnsureDir(artifact.RouteLinesDir); err != nil {
		return err
	}

	t := p.newTally(StageShapes)

	var pending []bmtc.Route
	for _, route := range catalog {
		if p.store.Exists(artifact.RouteLinesDir, route.RouteNo+".json") {
			t.skip(1)
			continue
		}
		pending = append(pending, route)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, route := range pending {
		route := route
		g.Go(func() error {
			p.fetchRouteLine(gctx, route, t)
			return nil // task outcomes live in the tally, never cancel siblings
		})
	}
	g.Wait()

	t.logSummary()
	return nil
}

func (p *Pipeline) fetchRouteLine(ctx context.Context, route bmtc.Route, t *tally) {
	var resp bmtc.RoutePointsResponse
	raw, err := p.postJSON(ctx, t, bmtc.EndpointRoutePoints, bmtc.RoutePointsRequest{RouteID: route.RouteID}, &resp)
	if err != nil {
		t.fail(ctx, route.RouteNo, err)
		return
	}
	if resp.EmptyResult() {
		t.noRecords(ctx, route.RouteNo)
		return
	}

	if err := p.store.Write(raw, artifact.RouteLinesDir, route.RouteNo+".json"); err != nil {
		t.fail(ctx, route.RouteNo, err)
		return
	}
	t.ok(ctx, route.RouteNo)
}
