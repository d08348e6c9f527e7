package synth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/config"
)

const stopsPayload = `{"issuccess":true,"message":"Success",
	"up":{"data":[
		{"stationid":10,"stationname":"Kempegowda Bus Station","centerlat":12.97,"centerlong":77.59},
		{"stationid":11,"stationname":"Mekhri Circle","centerlat":13.01,"centerlong":77.58},
		{"stationid":12,"stationname":"Hebbal","centerlat":13.04,"centerlong":77.59},
		{"stationid":13,"stationname":"Yelahanka","centerlat":13.10,"centerlong":77.59}]},
	"down":{"data":[
		{"stationid":13,"stationname":"Yelahanka","centerlat":13.10,"centerlong":77.59},
		{"stationid":12,"stationname":"Hebbal","centerlat":13.04,"centerlong":77.59},
		{"stationid":11,"stationname":"Mekhri Circle","centerlat":13.01,"centerlong":77.58},
		{"stationid":10,"stationname":"Kempegowda Bus Station","centerlat":12.97,"centerlong":77.59}]}}`

const catalogPayload = `{"Issuccess":true,"Message":"Success","data":[
	{"routeid":1,"routeparentid":100,"routeno":"335E UP","fromstationid":10,"fromstation":"Kempegowda Bus Station","tostationid":13,"tostation":"Yelahanka"},
	{"routeid":2,"routeparentid":100,"routeno":"335E DOWN","fromstationid":13,"fromstation":"Yelahanka","tostationid":10,"tostation":"Kempegowda Bus Station"},
	{"routeid":3,"routeparentid":200,"routeno":"KBS-2 UP","fromstationid":10,"fromstation":"Kempegowda Bus Station","tostationid":30,"tostation":"Jayanagar"}]}`

const shapePayload = `{"Issuccess":true,"Message":"Success","data":[
	{"latitude":12.97,"longitude":77.59},{"latitude":13.10,"longitude":77.59}]}`

const timetablePayload = `{"Issuccess":true,"Message":"Success","data":[
	{"fromstationname":"Kempegowda Bus Station","tostationname":"Yelahanka",
	 "tripdetails":[{"starttime":"08:00","endtime":"08:30"}]}]}`

// newTestStore lays down a representative artifact tree: route 335E has
// stops both ways, a shape for UP only and a Monday timetable; KBS-2 has no
// stop list at all; one stop artifact is malformed.
func newTestStore(t *testing.T) *artifact.Store {
	t.Helper()
	store := artifact.NewStore(t.TempDir())

	write := func(content string, parts ...string) {
		t.Helper()
		if err := store.EnsureDir(parts[:len(parts)-1]...); err != nil {
			t.Fatalf("EnsureDir failed: %v", err)
		}
		if err := store.Write([]byte(content), parts...); err != nil {
			t.Fatalf("Write %v failed: %v", parts, err)
		}
	}

	write(catalogPayload, artifact.RoutesFile)
	write(stopsPayload, artifact.StopsDir, "335E UP.json")
	write(stopsPayload, artifact.StopsDir, "335E DOWN.json")
	write(`{not json`, artifact.StopsDir, "BAD.json")
	write(shapePayload, artifact.RouteLinesDir, "335E UP.json")
	write(timetablePayload, artifact.TimetablesDir, "Monday", "335E UP.json")

	return store
}

func newTestSynthesizer(t *testing.T, store *artifact.Store) *Synthesizer {
	t.Helper()
	cfg := &config.Config{
		ReportDir:        t.TempDir(),
		TimetableWeekday: "Monday",
		AgencyName:       "Bengaluru Metropolitan Transport Corporation",
		AgencyURL:        "https://mybmtc.karnataka.gov.in/english",
		AgencyTimezone:   "Asia/Kolkata",
	}
	s := New(store, cfg, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSynthesizerBuildsModel(t *testing.T) {
	store := newTestStore(t)
	s := newTestSynthesizer(t, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	schedule := result.Schedule

	// Station ids appearing in both directions and both files dedup to one
	// Stop each
	if len(schedule.Stops) != 4 {
		t.Errorf("expected 4 unique stops, got %d", len(schedule.Stops))
	}

	// "335E UP" and "335E DOWN" collapse to one route
	if len(schedule.Routes) != 2 {
		t.Errorf("expected 2 routes, got %d", len(schedule.Routes))
	}
	route, ok := schedule.Routes["335E"]
	if !ok {
		t.Fatal("route 335E missing from model")
	}
	if route.LongName != "Kempegowda Bus Station ⇔ Yelahanka" {
		t.Errorf("long name = %q", route.LongName)
	}

	if len(schedule.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(schedule.Trips))
	}
	trip := schedule.Trips[0]
	if trip.RouteID != "335E" || trip.ShapeID != "335E UP" || trip.Headsign != "Yelahanka" {
		t.Errorf("trip = %+v", trip)
	}

	// 30 minutes over 4 stops: 450s interval, final stop before end time
	wantTimes := []string{"08:00:00", "08:07:30", "08:15:00", "08:22:30"}
	if len(trip.StopTimes) != len(wantTimes) {
		t.Fatalf("expected %d stop times, got %d", len(wantTimes), len(trip.StopTimes))
	}
	for i, st := range trip.StopTimes {
		if st.Time != wantTimes[i] {
			t.Errorf("stop time %d = %s, want %s", i, st.Time, wantTimes[i])
		}
		if st.Seq != i {
			t.Errorf("stop time %d has seq %d", i, st.Seq)
		}
	}

	if violations := schedule.Validate(); len(violations) != 0 {
		t.Errorf("model should validate, got %v", violations)
	}
}

func TestSynthesizerRecordsSkips(t *testing.T) {
	store := newTestStore(t)
	s := newTestSynthesizer(t, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 335E DOWN has stops but no shape
	if len(result.Skips.NoShapes) != 1 || result.Skips.NoShapes[0] != "335E DOWN.json" {
		t.Errorf("NoShapes = %v, want [335E DOWN.json]", result.Skips.NoShapes)
	}

	// KBS-2 has no stop list in either direction
	if len(result.Skips.NoStops) != 2 {
		t.Errorf("NoStops = %v, want both KBS-2 directions", result.Skips.NoStops)
	}

	report, err := os.ReadFile(filepath.Join(s.cfg.ReportDir, ReportMissingShapes))
	if err != nil {
		t.Fatalf("missing shapes report not written: %v", err)
	}
	if strings.Count(string(report), "335E DOWN.json") != 1 {
		t.Errorf("skipped key should appear exactly once, report: %q", report)
	}
}

func TestSynthesizerSurvivesMalformedStopFile(t *testing.T) {
	store := newTestStore(t)
	s := newTestSynthesizer(t, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("a malformed stop-list file must not fail the run: %v", err)
	}
	if len(result.Schedule.Stops) != 4 {
		t.Errorf("other stop files should still be ingested, got %d stops", len(result.Schedule.Stops))
	}
}

func TestSynthesizerRejectsInvalidWeekday(t *testing.T) {
	store := newTestStore(t)
	s := newTestSynthesizer(t, store)
	s.cfg.TimetableWeekday = "Funday"

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid weekday")
	}
}
