package search

import (
	"maps"
	"slices"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// User-facing messages for geocode-phase failures. Weather and POI failures
// never produce a message.
const (
	MsgLocationNotFound = "Location not found in Vietnam. Please try another search."
	MsgGeocodeFailed    = "Failed to fetch location data. Please try again."
)

// Session is the state of one view's current search.
type Session struct {
	Location     *places.Location
	POIs         []places.PointOfInterest
	Weather      *places.WeatherSnapshot
	IsLoading    bool
	ErrorMessage string
	// Seq identifies the search that last wrote to the session.
	Seq uint64
}

// clone returns a deep copy so observers cannot mutate orchestrator state.
func (s Session) clone() Session {
	out := s
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	if s.Weather != nil {
		w := *s.Weather
		out.Weather = &w
	}
	if s.POIs != nil {
		out.POIs = slices.Clone(s.POIs)
		for i := range out.POIs {
			out.POIs[i].RawTags = maps.Clone(out.POIs[i].RawTags)
		}
	}
	return out
}
