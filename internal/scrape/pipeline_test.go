package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bmtc-data/feedgen/internal/artifact"
	"github.com/bmtc-data/feedgen/internal/bmtc"
	"github.com/bmtc-data/feedgen/internal/config"
)

// fakeAPI serves the five WebAPI endpoints and counts every request
type fakeAPI struct {
	mu    sync.Mutex
	calls int

	// routeids whose RoutePoints call answers 404 (permanent failure)
	brokenShapes map[int]bool
}

func (f *fakeAPI) countCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/" + bmtc.EndpointRouteList:
			io.WriteString(w, `{"Issuccess":true,"Message":"Success","data":[
				{"routeid":1,"routeparentid":100,"routeno":"335E UP","fromstationid":10,"fromstation":"Kempegowda Bus Station","tostationid":20,"tostation":"Yelahanka"},
				{"routeid":2,"routeparentid":100,"routeno":"335E DOWN","fromstationid":20,"fromstation":"Yelahanka","tostationid":10,"tostation":"Kempegowda Bus Station"}]}`)

		case "/" + bmtc.EndpointSearchRoute:
			if body["routetext"] == "3" {
				io.WriteString(w, `{"Issuccess":true,"Message":"Success","data":[
					{"routeid":100,"routeparentid":100,"routeno":"335E"}]}`)
			} else {
				io.WriteString(w, `{"Issuccess":true,"Message":"No Records Found"}`)
			}

		case "/" + bmtc.EndpointRoutePoints:
			id := int(body["routeid"].(float64))
			if f.brokenShapes[id] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			io.WriteString(w, `{"Issuccess":true,"Message":"Success","data":[
				{"latitude":12.97,"longitude":77.59},{"latitude":13.00,"longitude":77.60}]}`)

		case "/" + bmtc.EndpointTimetable:
			io.WriteString(w, `{"Issuccess":true,"Message":"Success","data":[
				{"fromstationname":"Kempegowda Bus Station","tostationname":"Yelahanka",
				 "tripdetails":[{"starttime":"08:00","endtime":"08:30"}]}]}`)

		case "/" + bmtc.EndpointRouteDetails:
			io.WriteString(w, `{"issuccess":true,"message":"Success",
				"up":{"data":[{"stationid":10,"stationname":"Kempegowda Bus Station","centerlat":12.97,"centerlong":77.59}]},
				"down":{"data":[{"stationid":20,"stationname":"Yelahanka","centerlat":13.10,"centerlong":77.59}]}}`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestPipeline(t *testing.T, api *fakeAPI, root string) *Pipeline {
	t.Helper()

	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BaseURL:             srv.URL,
		RequestTimeout:      5 * time.Second,
		Workers:             4,
		RouteSearchAlphabet: "3",
		RawDir:              root,
	}

	p := NewPipeline(bmtc.NewClient(srv.URL, cfg.RequestTimeout), artifact.NewStore(root), cfg, nil)
	// Fixed clock so timetable weekday directories are deterministic
	p.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) } // a Monday
	return p
}

func TestPipelineFetchesAllStages(t *testing.T) {
	root := t.TempDir()
	api := &fakeAPI{}

	p := newTestPipeline(t, api, root)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	store := artifact.NewStore(root)
	wantArtifacts := [][]string{
		{artifact.RoutesFile},
		{artifact.RouteIDsDir, "3.json"},
		{artifact.RouteLinesDir, "335E UP.json"},
		{artifact.RouteLinesDir, "335E DOWN.json"},
		{artifact.TimetablesDir, "Tuesday", "335E UP.json"},
		{artifact.TimetablesDir, "Monday", "335E DOWN.json"},
		{artifact.StopsDir, "335E UP.json"},
		{artifact.StopsDir, "335E DOWN.json"},
	}
	for _, parts := range wantArtifacts {
		if !store.Exists(parts...) {
			t.Errorf("missing artifact %v", parts)
		}
	}

	// 1 catalog + 1 prefix search + 2 shapes + 2 routes x 7 days + 1 stop list
	if got := api.countCalls(); got != 19 {
		t.Errorf("expected 19 API calls, got %d", got)
	}
}

func TestPipelineRerunMakesNoNetworkCalls(t *testing.T) {
	root := t.TempDir()
	api := &fakeAPI{}

	p := newTestPipeline(t, api, root)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	first := api.countCalls()

	// reuse the same artifact root with a fresh server that must see nothing
	api2 := &fakeAPI{}
	p2 := newTestPipeline(t, api2, root)

	if err := p2.Run(context.Background()); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if got := api2.countCalls(); got != 0 {
		t.Errorf("re-run performed %d network calls, want 0", got)
	}
	if first == 0 {
		t.Error("first run should have made network calls")
	}
}

func TestPipelineIsolatesTaskFailures(t *testing.T) {
	root := t.TempDir()
	api := &fakeAPI{brokenShapes: map[int]bool{1: true}}

	p := newTestPipeline(t, api, root)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run should succeed despite per-task failures: %v", err)
	}

	store := artifact.NewStore(root)
	if store.Exists(artifact.RouteLinesDir, "335E UP.json") {
		t.Error("failed shape fetch should create no artifact")
	}
	if !store.Exists(artifact.RouteLinesDir, "335E DOWN.json") {
		t.Error("sibling shape fetch should survive a task failure")
	}
}
