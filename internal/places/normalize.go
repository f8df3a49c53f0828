package places

import (
	"maps"
	"math"
	"strings"
)

// MaxDisplayedPOIs caps how many normalized POIs are shown for one search.
const MaxDisplayedPOIs = 5

const (
	unnamedLocation = "Unnamed location"
	defaultCategory = "Point of Interest"
)

var (
	nameKeys     = []string{"name", "name:en", "name:vi"}
	categoryKeys = []string{"tourism", "amenity", "historic", "leisure"}
	addressKeys  = []string{"addr:housenumber", "addr:street", "addr:district", "addr:city", "addr:province"}
)

// firstTag returns the first non-empty value among keys.
func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// address joins the structured addr:* parts with ", ", falling back to the
// free-form address tag.
func address(tags map[string]string) string {
	parts := make([]string, 0, len(addressKeys))
	for _, k := range addressKeys {
		if v := tags[k]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return tags["address"]
}

// NormalizePOI maps one raw tagged record to the display schema.
func NormalizePOI(e Element) PointOfInterest {
	tags := maps.Clone(e.Tags)
	if tags == nil {
		tags = map[string]string{}
	}

	return PointOfInterest{
		ID:           e.ID,
		Name:         orDefault(firstTag(tags, nameKeys...), unnamedLocation),
		Category:     orDefault(firstTag(tags, categoryKeys...), defaultCategory),
		Coordinates:  [2]float64{e.Lat, e.Lon},
		Description:  firstTag(tags, "description", "description:en", "note"),
		Address:      address(tags),
		Phone:        firstTag(tags, "phone", "contact:phone"),
		Website:      firstTag(tags, "website", "contact:website"),
		OpeningHours: firstTag(tags, "opening_hours", "opening_hours:covid19"),
		Cuisine:      tags["cuisine"],
		Rating:       tags["stars"],
		Wikipedia:    firstTag(tags, "wikipedia", "wikipedia:en"),
		Wikidata:     tags["wikidata"],
		Email:        firstTag(tags, "email", "contact:email"),
		RawTags:      tags,
	}
}

// NormalizePOIs normalizes elements in provider order and keeps at most
// MaxDisplayedPOIs of them. The result is never nil.
func NormalizePOIs(elements []Element) []PointOfInterest {
	n := min(len(elements), MaxDisplayedPOIs)
	pois := make([]PointOfInterest, 0, n)
	for _, e := range elements[:n] {
		pois = append(pois, NormalizePOI(e))
	}
	return pois
}

// ElementFromPOI rebuilds the raw record a POI was normalized from.
// NormalizePOI(ElementFromPOI(p)) == p for any normalized p.
func ElementFromPOI(p PointOfInterest) Element {
	return Element{
		ID:   p.ID,
		Type: "node",
		Lat:  p.Coordinates[0],
		Lon:  p.Coordinates[1],
		Tags: maps.Clone(p.RawTags),
	}
}

// RoundHalfUp rounds to the nearest integer, with halves going up
// (21.5 -> 22, -0.5 -> 0).
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
