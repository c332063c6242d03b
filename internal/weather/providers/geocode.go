package providers

import (
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// fieldLocator resolves a field to coordinates, geocoding its city/country
// when explicit lat/lon are absent. Geocoding results are cached per field
// key since field locations never change within a process run.
type fieldLocator struct {
	mu    sync.Mutex
	cache map[string]geocoder.Location
}

// newFieldLocator configures the geocoder API key and returns a locator.
// The geocoder package keys are process-global.
func newFieldLocator(apiKey string) *fieldLocator {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &fieldLocator{cache: make(map[string]geocoder.Location)}
}

// locate returns the coordinates for a field.
func (l *fieldLocator) locate(field agro.Field) (lat, lon float64, err error) {
	if field.Lat != nil && field.Lon != nil {
		return *field.Lat, *field.Lon, nil
	}
	if field.City == "" {
		return 0, 0, fmt.Errorf("field %s has neither coordinates nor a city to geocode", field.FieldID)
	}

	key := field.City + ":" + field.Country

	l.mu.Lock()
	defer l.mu.Unlock()

	if loc, ok := l.cache[key]; ok {
		return loc.Latitude, loc.Longitude, nil
	}

	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    field.City,
		Country: field.Country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode field %s (%s): %w", field.FieldID, key, err)
	}

	l.cache[key] = loc
	return loc.Latitude, loc.Longitude, nil
}
