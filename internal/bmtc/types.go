package bmtc

import "strings"

// WebAPI endpoints
const (
	EndpointRouteList    = "GetAllRouteList"
	EndpointSearchRoute  = "SearchRoute_v2"
	EndpointRoutePoints  = "RoutePoints"
	EndpointTimetable    = "GetTimetableByRouteid_v2"
	EndpointRouteDetails = "SearchByRouteDetails_v4"
)

// Envelope is the common response wrapper used by most WebAPI endpoints.
// The API signals "no data" two ways: an explicit message, or Issuccess=false.
// Both mean an empty result, not a transport failure.
type Envelope struct {
	IsSuccess bool   `json:"Issuccess"`
	Message   string `json:"Message"`
}

// EmptyResult reports whether the response carries no usable records
func (e Envelope) EmptyResult() bool {
	return !e.IsSuccess || emptyMessage(e.Message)
}

// emptyMessage matches the known "no records" message variants the API emits
func emptyMessage(msg string) bool {
	switch strings.TrimSpace(msg) {
	case "No Records Found", "No Records Found.",
		"Data not found",
		"Object reference not set to an instance of an object.":
		return true
	}
	return false
}

// Route is one entry of the GetAllRouteList catalog. RouteNo may carry a
// direction suffix (" UP" / " DOWN"); RouteID identifies the directional
// route, RouteParentID the physical route grouping both directions.
type Route struct {
	RouteID       int    `json:"routeid"`
	RouteParentID int    `json:"routeparentid"`
	RouteNo       string `json:"routeno"`
	FromStationID int    `json:"fromstationid"`
	FromStation   string `json:"fromstation"`
	ToStationID   int    `json:"tostationid"`
	ToStation     string `json:"tostation"`
}

// RouteListResponse is the GetAllRouteList payload
type RouteListResponse struct {
	Envelope
	Data []Route `json:"data"`
}

// SearchRouteRequest is the SearchRoute_v2 request body
type SearchRouteRequest struct {
	RouteText string `json:"routetext"`
}

// SearchRouteResponse is the SearchRoute_v2 payload
type SearchRouteResponse struct {
	Envelope
	Data []Route `json:"data"`
}

// RoutePointsRequest is the RoutePoints request body
type RoutePointsRequest struct {
	RouteID int `json:"routeid"`
}

// ShapePoint is one ordered point of a route polyline
type ShapePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RoutePointsResponse is the RoutePoints payload
type RoutePointsResponse struct {
	Envelope
	Data []ShapePoint `json:"data"`
}

// TimetableRequest is the GetTimetableByRouteid_v2 request body
type TimetableRequest struct {
	RouteID       int    `json:"routeid"`
	FromStationID int    `json:"fromStationId"`
	ToStationID   int    `json:"toStationId"`
	CurrentDate   string `json:"current_date"` // YYYY-MM-DD
}

// TripDetail is one departure of a timetable: wall-clock start and end of
// the whole trip, with no per-stop times.
type TripDetail struct {
	StartTime string `json:"starttime"` // HH:MM
	EndTime   string `json:"endtime"`   // HH:MM
}

// TimetableData groups the trips of one (route, day) timetable
type TimetableData struct {
	FromStationName string       `json:"fromstationname"`
	ToStationName   string       `json:"tostationname"`
	TripDetails     []TripDetail `json:"tripdetails"`
}

// TimetableResponse is the GetTimetableByRouteid_v2 payload
type TimetableResponse struct {
	Envelope
	Data []TimetableData `json:"data"`
}

// RouteDetailsRequest is the SearchByRouteDetails_v4 request body.
// RouteID here is the parent route id covering both directions.
type RouteDetailsRequest struct {
	RouteID       int `json:"routeid"`
	ServiceTypeID int `json:"servicetypeid"`
}

// Stop is one station of a route-direction stop list
type Stop struct {
	StationID   int     `json:"stationid"`
	StationName string  `json:"stationname"`
	CenterLat   float64 `json:"centerlat"`
	CenterLong  float64 `json:"centerlong"`
}

// DirectionStops holds the ordered stop list of one direction
type DirectionStops struct {
	Data []Stop `json:"data"`
}

// StopsResponse is the SearchByRouteDetails_v4 payload. This endpoint uses a
// lowercase envelope unlike the others, and a different "no data" message.
type StopsResponse struct {
	IsSuccess bool           `json:"issuccess"`
	Message   string         `json:"message"`
	Up        DirectionStops `json:"up"`
	Down      DirectionStops `json:"down"`
}

// EmptyResult reports whether the response carries no usable records
func (r StopsResponse) EmptyResult() bool {
	return !r.IsSuccess || emptyMessage(r.Message)
}

// StripDirection removes the directional suffix from a catalog route number,
// collapsing "335E UP" and "335E DOWN" to "335E".
func StripDirection(routeNo string) string {
	routeNo = strings.ReplaceAll(routeNo, " UP", "")
	routeNo = strings.ReplaceAll(routeNo, " DOWN", "")
	return routeNo
}
