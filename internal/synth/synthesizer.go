// Package synth builds the schedule model from the raw artifact store. It
// runs five ordered phases: agency and service period, stops, routes, shapes,
// then trips with interpolated stop times. A (route, direction) pair missing
// its stop list, shape or timetable is skipped and itemized, never an error;
// partial coverage is the expected outcome of scraping a live API.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
	"github.com/bmtc-data/feedgen/internal/config"
	"github.com/bmtc-data/feedgen/internal/gtfs"
	"github.com/bmtc-data/feedgen/internal/journal"
)

// Synthesis phase names used in logs and the journal
const (
	phaseStops  = "ingest-stops"
	phaseRoutes = "ingest-routes"
	phaseShapes = "ingest-shapes"
	phaseTrips  = "build-trips"
)

// Skip categories for the journal
const (
	SkipNoStops     = "no-stops"
	SkipNoShape     = "no-shape"
	SkipNoTimetable = "no-timetable"
)

var directions = []string{"UP", "DOWN"}

// Skips itemizes every (route, direction) pair that produced no trips,
// by reason. The lists are persisted as the missing-* report files.
type Skips struct {
	NoStops      []string
	NoShapes     []string
	NoTimetables []string
}

// Result is the synthesized model plus its coverage accounting
type Result struct {
	Schedule *gtfs.Schedule
	Skips    Skips
	Trips    int // (route, direction) pairs that produced trips
}

// Synthesizer reads the artifact store and populates a schedule model
type Synthesizer struct {
	store   *artifact.Store
	cfg     *config.Config
	journal *journal.Journal
	interp  InterpolationPolicy

	runID string
	now   func() time.Time
}

// New creates a synthesizer with the uniform interpolation policy
func New(store *artifact.Store, cfg *config.Config, j *journal.Journal) *Synthesizer {
	return &Synthesizer{
		store:   store,
		cfg:     cfg,
		journal: j,
		interp:  UniformInterpolation{},
		now:     time.Now,
	}
}

// SetInterpolation swaps the stop-time interpolation policy
func (s *Synthesizer) SetInterpolation(p InterpolationPolicy) {
	s.interp = p
}

// Run executes all synthesis phases and returns the built model. Only a
// missing route catalog or an invalid target weekday is fatal; per-file
// problems are logged, journaled and excluded.
func (s *Synthesizer) Run(ctx context.Context) (*Result, error) {
	weekday := s.cfg.TimetableWeekday
	if !validWeekday(weekday) {
		return nil, fmt.Errorf("invalid timetable weekday %q", weekday)
	}

	runID, err := s.journal.StartRun(ctx, journal.KindBuild)
	if err != nil {
		log.Printf("Warning: journal unavailable, continuing without it: %v", err)
	}
	s.runID = runID

	b := gtfs.NewBuilder()
	b.SetAgency(s.cfg.AgencyName, s.cfg.AgencyURL, s.cfg.AgencyTimezone)

	today := s.now()
	b.SetServicePeriod(today.AddDate(0, 0, 1), today.AddDate(0, 0, 7))

	s.ingestStops(ctx, b)

	if err := s.ingestRoutes(ctx, b); err != nil {
		return nil, err
	}

	s.ingestShapes(ctx, b)

	skips, trips := s.buildTrips(ctx, b, weekday)

	if err := WriteReports(s.cfg.ReportDir, skips); err != nil {
		return nil, err
	}

	log.Printf("Synthesis: %d trips built, %d pairs missing timetables, %d missing stop lists, %d missing shapes",
		trips, len(skips.NoTimetables), len(skips.NoStops), len(skips.NoShapes))

	return &Result{Schedule: b.Schedule(), Skips: skips, Trips: trips}, nil
}

// ingestStops walks every stop-list artifact and registers each station
// once; the same station id appearing on many routes is a no-op after the
// first sighting. A malformed file is excluded without stopping the walk.
func (s *Synthesizer) ingestStops(ctx context.Context, b *gtfs.Builder) {
	names, err := s.store.List(artifact.StopsDir)
	if err != nil {
		log.Printf("%s: %v", phaseStops, err)
		return
	}

	added, failed := 0, 0
	for _, name := range names {
		if !s.store.Exists(artifact.StopsDir, name) {
			continue // zero-length leftover
		}
		raw, err := s.store.Read(artifact.StopsDir, name)
		if err != nil {
			failed++
			s.recordFailure(ctx, phaseStops, name, err)
			continue
		}

		var resp bmtc.StopsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			failed++
			s.recordFailure(ctx, phaseStops, name, err)
			continue
		}

		for _, stop := range append(resp.Up.Data, resp.Down.Data...) {
			if b.AddStop(strconv.Itoa(stop.StationID), stop.StationName, stop.CenterLat, stop.CenterLong) {
				added++
			}
		}
	}
	log.Printf("%s: %d stops added (%d files failed to parse)", phaseStops, added, failed)
}

// ingestRoutes reads the route catalog and registers one route per
// direction-stripped route number. The catalog being unreadable is fatal;
// a malformed individual record is skipped with a logged failure.
func (s *Synthesizer) ingestRoutes(ctx context.Context, b *gtfs.Builder) error {
	raw, err := s.store.Read(artifact.RoutesFile)
	if err != nil {
		return fmt.Errorf("route catalog: %w", err)
	}

	var resp bmtc.RouteListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("malformed route catalog: %w", err)
	}

	added, failed := 0, 0
	for _, route := range resp.Data {
		key := bmtc.StripDirection(route.RouteNo)
		if strings.TrimSpace(key) == "" {
			failed++
			s.recordFailure(ctx, phaseRoutes, route.RouteNo, fmt.Errorf("record has no route number"))
			continue
		}

		longName := fmt.Sprintf("%s ⇔ %s", route.FromStation, route.ToStation)
		if b.AddRoute(key, longName, route.RouteID) {
			added++
		}
	}
	log.Printf("%s: %d routes added (%d records skipped)", phaseRoutes, added, failed)
	return nil
}

// ingestShapes registers one shape per route-line artifact, keyed by the
// artifact's base name ("335E UP"). Artifacts with no points are skipped.
func (s *Synthesizer) ingestShapes(ctx context.Context, b *gtfs.Builder) {
	names, err := s.store.List(artifact.RouteLinesDir)
	if err != nil {
		log.Printf("%s: %v", phaseShapes, err)
		return
	}

	added, failed := 0, 0
	for _, name := range names {
		raw, err := s.store.Read(artifact.RouteLinesDir, name)
		if err != nil {
			failed++
			s.recordFailure(ctx, phaseShapes, name, err)
			continue
		}

		var resp bmtc.RoutePointsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			failed++
			s.recordFailure(ctx, phaseShapes, name, err)
			continue
		}
		if len(resp.Data) == 0 {
			continue
		}

		points := make([]gtfs.Point, len(resp.Data))
		for i, pt := range resp.Data {
			points[i] = gtfs.Point{Lat: pt.Latitude, Lon: pt.Longitude}
		}

		shapeID := strings.TrimSuffix(name, ".json")
		if b.AddShape(shapeID, points) {
			added++
		}
	}
	log.Printf("%s: %d shapes added (%d files failed to parse)", phaseShapes, added, failed)
}

// buildTrips generates trips for every (route, direction) pair that has a
// stop list, a shape and a timetable for the target weekday; any missing
// piece skips the whole pair so a trip is never partially built.
func (s *Synthesizer) buildTrips(ctx context.Context, b *gtfs.Builder, weekday string) (Skips, int) {
	var skips Skips
	trips := 0

	routes := b.Routes()
	sort.Strings(routes)

	for _, route := range routes {
		for _, dir := range directions {
			filename := route + " " + dir + ".json"

			if !s.store.Exists(artifact.StopsDir, filename) {
				skips.NoStops = append(skips.NoStops, filename)
				s.recordSkip(ctx, SkipNoStops, filename)
				continue
			}

			shapeKey := route + " " + dir
			if !b.HasShape(shapeKey) {
				skips.NoShapes = append(skips.NoShapes, filename)
				s.recordSkip(ctx, SkipNoShape, filename)
				continue
			}

			timetableKey := artifact.TimetablesDir + "/" + weekday + "/" + filename
			if !s.store.Exists(artifact.TimetablesDir, weekday, filename) {
				skips.NoTimetables = append(skips.NoTimetables, timetableKey)
				s.recordSkip(ctx, SkipNoTimetable, timetableKey)
				continue
			}

			built, skip := s.buildDirectionTrips(ctx, b, route, dir, weekday, filename)
			switch skip {
			case SkipNoStops:
				skips.NoStops = append(skips.NoStops, filename)
				s.recordSkip(ctx, skip, filename)
			case SkipNoTimetable:
				skips.NoTimetables = append(skips.NoTimetables, timetableKey)
				s.recordSkip(ctx, skip, timetableKey)
			default:
				if built {
					trips++
				}
			}
		}
	}

	return skips, trips
}

// buildDirectionTrips creates the trips of one (route, direction) pair.
// Returns whether trips were built, or a non-empty skip category.
func (s *Synthesizer) buildDirectionTrips(ctx context.Context, b *gtfs.Builder, route, dir, weekday, filename string) (bool, string) {
	rawStops, err := s.store.Read(artifact.StopsDir, filename)
	if err != nil {
		s.recordFailure(ctx, phaseTrips, filename, err)
		return false, ""
	}
	var stopsResp bmtc.StopsResponse
	if err := json.Unmarshal(rawStops, &stopsResp); err != nil {
		s.recordFailure(ctx, phaseTrips, filename, err)
		return false, ""
	}

	var dirStops []bmtc.Stop
	if dir == "UP" {
		dirStops = stopsResp.Up.Data
	} else {
		dirStops = stopsResp.Down.Data
	}
	if len(dirStops) == 0 {
		return false, SkipNoStops
	}

	rawTT, err := s.store.Read(artifact.TimetablesDir, weekday, filename)
	if err != nil {
		s.recordFailure(ctx, phaseTrips, filename, err)
		return false, ""
	}
	var tt bmtc.TimetableResponse
	if err := json.Unmarshal(rawTT, &tt); err != nil {
		s.recordFailure(ctx, phaseTrips, filename, err)
		return false, ""
	}
	if tt.EmptyResult() || len(tt.Data) == 0 {
		return false, SkipNoTimetable
	}

	directionID := gtfs.DirectionUp
	if dir == "DOWN" {
		directionID = gtfs.DirectionDown
	}

	day := tt.Data[0]
	built := 0
	for _, td := range day.TripDetails {
		start, err := time.Parse("15:04", td.StartTime)
		if err != nil {
			s.recordFailure(ctx, phaseTrips, filename, fmt.Errorf("bad start time %q: %w", td.StartTime, err))
			continue
		}
		end, err := time.Parse("15:04", td.EndTime)
		if err != nil {
			s.recordFailure(ctx, phaseTrips, filename, fmt.Errorf("bad end time %q: %w", td.EndTime, err))
			continue
		}

		trip := b.AddTrip(route, route+" "+dir, directionID, day.ToStationName)
		if trip == nil {
			s.recordFailure(ctx, phaseTrips, filename, fmt.Errorf("route or shape vanished from model"))
			continue
		}

		times := s.interp.StopTimes(start, end, len(dirStops))
		for i, stop := range dirStops {
			trip.AddStopTime(strconv.Itoa(stop.StationID), times[i])
		}
		built++
	}

	return built > 0, ""
}

func (s *Synthesizer) recordFailure(ctx context.Context, phase, key string, err error) {
	log.Printf("%s: %s: %v", phase, key, err)
	if jerr := s.journal.RecordTask(ctx, s.runID, phase, key, journal.OutcomeFailure, err.Error()); jerr != nil {
		log.Printf("Warning: failed to journal %s/%s: %v", phase, key, jerr)
	}
}

func (s *Synthesizer) recordSkip(ctx context.Context, category, key string) {
	if err := s.journal.RecordSkip(ctx, s.runID, category, key); err != nil {
		log.Printf("Warning: failed to journal skip %s/%s: %v", category, key, err)
	}
}

func validWeekday(name string) bool {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if day.String() == name {
			return true
		}
	}
	return false
}
