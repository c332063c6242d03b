package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface against the
// Open-Meteo daily forecast API. Open-Meteo itself needs no API key; only
// geocoding of fields without coordinates does.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	locator *fieldLocator
}

func NewOpenMeteoProvider(client *http.Client, geocoderAPIKey string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("openmeteo"),
		locator: newFieldLocator(geocoderAPIKey),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, field agro.Field, from, to time.Time) ([]weather.ProviderReading, error) {
	lat, lon, err := p.locator.locate(field)
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("daily", "temperature_2m_min,temperature_2m_max,temperature_2m_mean")
		values.Set("timezone", "UTC")
		values.Set("start_date", agro.DayKey(from))
		values.Set("end_date", agro.DayKey(to))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time    []string   `json:"time"`
			TempMin []*float64 `json:"temperature_2m_min"`
			TempMax []*float64 `json:"temperature_2m_max"`
			TempAvg []*float64 `json:"temperature_2m_mean"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	readings := make([]weather.ProviderReading, 0, len(payload.Daily.Time))
	for i, day := range payload.Daily.Time {
		date, err := agro.ParseDay(day)
		if err != nil {
			continue
		}

		r := weather.ProviderReading{
			ProviderName: p.name,
			Date:         date,
		}
		if i < len(payload.Daily.TempMin) {
			r.MinTempC = payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.TempMax) {
			r.MaxTempC = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempAvg) {
			r.MeanTempC = payload.Daily.TempAvg[i]
		}

		// A day with no values at all is a gap, not a zero reading.
		if r.MinTempC == nil && r.MaxTempC == nil && r.MeanTempC == nil {
			continue
		}
		readings = append(readings, r)
	}

	return readings, nil
}
