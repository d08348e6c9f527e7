package scrape

import (
	"context"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
)

// fetchTimetables fetches every route's timetable for each of the next seven
// calendar days, keyed on disk by weekday name. Each day is its own fully
// parallel batch; days run sequentially so one day's burst finishes before
// the next begins.
func (p *Pipeline) fetchTimetables(ctx context.Context, catalog []bmtc.Route) error {
	for day := 1; day <= 7; day++ {
		date := p.now().AddDate(0, 0, day)
		weekday := date.Weekday().String()

		log.Printf("%s: fetching %s (%s)", StageTimetables, weekday, date.Format("2006-01-02"))

		if err := p.store.EnsureDir(artifact.TimetablesDir, weekday); err != nil {
			return err
		}

		t := p.newTally(StageTimetables + "/" + weekday)

		var pending []bmtc.Route
		for _, route := range catalog {
			if p.store.Exists(artifact.TimetablesDir, weekday, route.RouteNo+".json") {
				t.skip(1)
				continue
			}
			pending = append(pending, route)
		}

		dateStr := date.Format("2006-01-02")
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Workers)
		for _, route := range pending {
			route := route
			g.Go(func() error {
				p.fetchTimetable(gctx, route, weekday, dateStr, t)
				return nil
			})
		}
		g.Wait()

		t.logSummary()
	}
	return nil
}

func (p *Pipeline) fetchTimetable(ctx context.Context, route bmtc.Route, weekday, date string, t *tally) {
	key := filepath.Join(weekday, route.RouteNo)

	req := bmtc.TimetableRequest{
		RouteID:       route.RouteID,
		FromStationID: route.FromStationID,
		ToStationID:   route.ToStationID,
		CurrentDate:   date,
	}
	var resp bmtc.TimetableResponse
	raw, err := p.postJSON(ctx, t, bmtc.EndpointTimetable, req, &resp)
	if err != nil {
		t.fail(ctx, key, err)
		return
	}
	if resp.EmptyResult() {
		t.noRecords(ctx, key)
		return
	}

	if err := p.store.Write(raw, artifact.TimetablesDir, weekday, route.RouteNo+".json"); err != nil {
		t.fail(ctx, key, err)
		return
	}
	t.ok(ctx, key)
}
