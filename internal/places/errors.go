package places

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationNotFound means the geocoder returned zero matches in Vietnam.
	ErrLocationNotFound = errors.New("location not found in Vietnam")
	// ErrGeocodeFailed wraps transport or decoding failures of the geocoder.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrPOIUnavailable wraps any failure of the POI index.
	ErrPOIUnavailable = errors.New("points of interest unavailable")
	// ErrWeatherUnavailable is returned when weather is not configured or the provider failed.
	ErrWeatherUnavailable = errors.New("weather unavailable")
	// ErrTranslationFailed wraps any failure of the translation service.
	ErrTranslationFailed = errors.New("translation failed")
	// ErrChatFailed wraps any failure of the chat backing.
	ErrChatFailed = errors.New("chat failed")
)

// StatusError records a non-2xx response from an upstream service.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}
