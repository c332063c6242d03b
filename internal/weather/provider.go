package weather

import (
	"context"
	"time"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// ProviderReading is one provider's view of one day of weather for a field.
// Nil temperature pointers mean the provider did not report that value.
type ProviderReading struct {
	ProviderName string
	Date         time.Time
	MinTempC     *float64
	MaxTempC     *float64
	MeanTempC    *float64
}

// Provider abstracts a daily weather data source (e.g. Open-Meteo,
// WeatherAPI). Implementations return one reading per calendar day in
// [from, to], ascending; gaps are allowed and surface as missing dates.
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, field agro.Field, from, to time.Time) ([]ProviderReading, error)
}

// SeriesStore is the contract the in-memory series store (and any future
// persistent store) must satisfy.
type SeriesStore interface {
	SaveSeries(fieldID string, records []agro.WeatherRecord)
	GetRange(fieldID string, from, to time.Time) ([]agro.WeatherRecord, error)
	Covers(fieldID string, from, to time.Time) bool
}
