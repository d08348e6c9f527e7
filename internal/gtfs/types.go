// Package gtfs holds the synthesized in-memory transit schedule: agency,
// service period, stops, routes, shapes, trips and per-stop times. The model
// is built once per run by a Builder, validated, handed to an exporter, and
// discarded; the raw artifacts are the durable state between runs.
package gtfs

import "time"

// Route types (GTFS route_type values)
const (
	RouteTypeBus = 3
)

// Trip directions
const (
	DirectionUp   = 0
	DirectionDown = 1
)

// Agency identifies the transit operator
type Agency struct {
	Name     string
	URL      string
	Timezone string
}

// ServicePeriod is the active service window with per-weekday flags.
// Weekdays is indexed by time.Weekday (Sunday = 0).
type ServicePeriod struct {
	Start    time.Time
	End      time.Time
	Weekdays [7]bool
}

// Stop is a physical station, unique by ID across the whole model
type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Route is a bus route with the direction suffix stripped from its key, so
// one Route covers both the UP and DOWN service of a physical route.
type Route struct {
	ID            string // direction-stripped route number, e.g. "335E"
	ShortName     string
	LongName      string // "{origin} ⇔ {destination}"
	Type          int
	SourceRouteID int // routeid of the catalog record that introduced it
}

// Point is one ordered vertex of a shape polyline
type Point struct {
	Lat float64
	Lon float64
}

// Shape is the polyline of one route direction, keyed "route DIRECTION"
type Shape struct {
	ID     string // e.g. "335E UP"
	Points []Point
}

// StopTime is one scheduled stop of a trip. Arrival and departure coincide
// because per-stop times are interpolated from the trip's overall span.
type StopTime struct {
	StopID string
	Time   string // wall-clock HH:MM:SS
	Seq    int    // 0-based, strictly increasing within the trip
}

// Trip is one scheduled run of a route in one direction
type Trip struct {
	ID          string
	RouteID     string
	ShapeID     string
	DirectionID int
	Headsign    string
	StopTimes   []StopTime
}

// AddStopTime appends a stop time with the next sequence index
func (t *Trip) AddStopTime(stopID, clock string) {
	t.StopTimes = append(t.StopTimes, StopTime{
		StopID: stopID,
		Time:   clock,
		Seq:    len(t.StopTimes),
	})
}

// Schedule is the complete synthesized model
type Schedule struct {
	Agency  Agency
	Service ServicePeriod
	Stops   map[string]*Stop
	Routes  map[string]*Route
	Shapes  map[string]*Shape
	Trips   []*Trip
}
