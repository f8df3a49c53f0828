package places

import "time"

// Location is a geocoded place. It is created once per successful geocode and
// never modified afterwards.
type Location struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	DisplayName  string  `json:"display_name"`
	SearchedCity string  `json:"searched_city"`
}

// Element is a raw tag-based record returned by the POI index.
type Element struct {
	ID   int64             `json:"id"`
	Type string            `json:"type,omitempty"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

// PointOfInterest is the display schema for a POI. All string fields default to
// the empty string.
type PointOfInterest struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"type"`
	Coordinates  [2]float64        `json:"coordinates"`
	Description  string            `json:"description"`
	Address      string            `json:"address"`
	Phone        string            `json:"phone"`
	Website      string            `json:"website"`
	OpeningHours string            `json:"openingHours"`
	Cuisine      string            `json:"cuisine"`
	Rating       string            `json:"rating"`
	Wikipedia    string            `json:"wikipedia"`
	Wikidata     string            `json:"wikidata"`
	Email        string            `json:"email"`
	RawTags      map[string]string `json:"tags"`
}

// WeatherSnapshot holds current conditions at a point. Temperatures are whole
// degrees Celsius.
type WeatherSnapshot struct {
	TempC       int     `json:"temp"`
	FeelsLikeC  int     `json:"feelsLike"`
	Description string  `json:"description"`
	IconCode    string  `json:"icon"`
	HumidityPct int     `json:"humidity"`
	WindSpeedMs float64 `json:"windSpeed"`
	PressureHPa int     `json:"pressure"`
	TempMinC    int     `json:"tempMin"`
	TempMaxC    int     `json:"tempMax"`
	City        string  `json:"city"`
}

// Message is one turn of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SearchRecord is one persisted geocode lookup.
type SearchRecord struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Location  Location  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}
