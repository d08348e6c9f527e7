package gtfs

import (
	"time"

	"github.com/google/uuid"
)

// Builder owns a Schedule while it is being populated. It enforces the
// model's uniqueness rules: duplicate stop, route and shape keys are no-ops,
// and trips can only be attached to routes and shapes already in the model.
type Builder struct {
	s *Schedule
}

// NewBuilder creates a builder with an empty schedule
func NewBuilder() *Builder {
	return &Builder{
		s: &Schedule{
			Stops:  make(map[string]*Stop),
			Routes: make(map[string]*Route),
			Shapes: make(map[string]*Shape),
		},
	}
}

// SetAgency sets the singleton agency
func (b *Builder) SetAgency(name, url, timezone string) {
	b.s.Agency = Agency{Name: name, URL: url, Timezone: timezone}
}

// SetServicePeriod sets the active window with service on every weekday
func (b *Builder) SetServicePeriod(start, end time.Time) {
	period := ServicePeriod{Start: start, End: end}
	for day := range period.Weekdays {
		period.Weekdays[day] = true
	}
	b.s.Service = period
}

// AddStop adds a stop unless its ID is already present. Returns true if the
// stop was added; later sightings of the same station are no-ops.
func (b *Builder) AddStop(id, name string, lat, lon float64) bool {
	if _, ok := b.s.Stops[id]; ok {
		return false
	}
	b.s.Stops[id] = &Stop{ID: id, Name: name, Lat: lat, Lon: lon}
	return true
}

// HasStop reports whether a stop with the given ID exists
func (b *Builder) HasStop(id string) bool {
	_, ok := b.s.Stops[id]
	return ok
}

// AddRoute adds a route unless its key is already present, collapsing the
// UP and DOWN catalog entries of one physical route into a single Route.
func (b *Builder) AddRoute(key, longName string, sourceRouteID int) bool {
	if _, ok := b.s.Routes[key]; ok {
		return false
	}
	b.s.Routes[key] = &Route{
		ID:            key,
		ShortName:     key,
		LongName:      longName,
		Type:          RouteTypeBus,
		SourceRouteID: sourceRouteID,
	}
	return true
}

// Routes returns the route keys currently in the model
func (b *Builder) Routes() []string {
	keys := make([]string, 0, len(b.s.Routes))
	for key := range b.s.Routes {
		keys = append(keys, key)
	}
	return keys
}

// AddShape adds a shape unless its key is already present
func (b *Builder) AddShape(id string, points []Point) bool {
	if _, ok := b.s.Shapes[id]; ok {
		return false
	}
	b.s.Shapes[id] = &Shape{ID: id, Points: points}
	return true
}

// HasShape reports whether a shape with the given key exists
func (b *Builder) HasShape(id string) bool {
	_, ok := b.s.Shapes[id]
	return ok
}

// AddTrip creates a trip under an existing route and shape. Returns nil if
// either is missing from the model; the caller must treat that as a skip.
func (b *Builder) AddTrip(routeKey, shapeID string, directionID int, headsign string) *Trip {
	if _, ok := b.s.Routes[routeKey]; !ok {
		return nil
	}
	if _, ok := b.s.Shapes[shapeID]; !ok {
		return nil
	}

	trip := &Trip{
		ID:          uuid.New().String(),
		RouteID:     routeKey,
		ShapeID:     shapeID,
		DirectionID: directionID,
		Headsign:    headsign,
	}
	b.s.Trips = append(b.s.Trips, trip)
	return trip
}

// Schedule hands off the built model. The builder must not be used after.
func (b *Builder) Schedule() *Schedule {
	s := b.s
	b.s = nil
	return s
}
