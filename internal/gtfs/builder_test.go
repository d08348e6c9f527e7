package gtfs

import "testing"

func TestAddStopDeduplicates(t *testing.T) {
	b := NewBuilder()
	if !b.AddStop("10", "Origin", 12.97, 77.59) {
		t.Error("first AddStop should report added")
	}
	if b.AddStop("10", "Renamed", 0, 0) {
		t.Error("duplicate AddStop should be a no-op")
	}

	s := b.Schedule()
	if len(s.Stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(s.Stops))
	}
	if s.Stops["10"].Name != "Origin" {
		t.Errorf("later sighting must not overwrite, got %q", s.Stops["10"].Name)
	}
}

func TestAddRouteCollapsesDirections(t *testing.T) {
	b := NewBuilder()
	if !b.AddRoute("335E", "A ⇔ B", 1) {
		t.Error("first AddRoute should report added")
	}
	if b.AddRoute("335E", "B ⇔ A", 2) {
		t.Error("duplicate AddRoute should be a no-op")
	}

	s := b.Schedule()
	if len(s.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(s.Routes))
	}
	if s.Routes["335E"].SourceRouteID != 1 {
		t.Error("first catalog record wins")
	}
}

func TestAddTripRequiresRouteAndShape(t *testing.T) {
	b := NewBuilder()
	b.AddRoute("335E", "A ⇔ B", 1)

	if trip := b.AddTrip("335E", "335E UP", DirectionUp, "B"); trip != nil {
		t.Error("AddTrip must refuse when shape is missing")
	}
	if trip := b.AddTrip("nope", "335E UP", DirectionUp, "B"); trip != nil {
		t.Error("AddTrip must refuse when route is missing")
	}

	b.AddShape("335E UP", []Point{{1, 2}})
	trip := b.AddTrip("335E", "335E UP", DirectionUp, "B")
	if trip == nil {
		t.Fatal("AddTrip should succeed with route and shape present")
	}
	if trip.ID == "" {
		t.Error("trip should get a generated id")
	}
}
