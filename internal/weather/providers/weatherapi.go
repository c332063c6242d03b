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

// weatherAPIMaxForecastDays is the forward horizon of the weatherapi.com
// forecast endpoint on the free plan.
const weatherAPIMaxForecastDays = 14

// WeatherAPIProvider implements the weather.Provider interface for
// WeatherAPI.com. Its forecast endpoint only covers the next two weeks, so
// readings outside that horizon simply come back empty and the requested
// range is served by the other providers.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, field agro.Field, from, to time.Time) ([]weather.ProviderReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	days := agro.DaysBetween(agro.Day(time.Now()), agro.Day(to)) + 1
	if days <= 0 {
		// Entirely in the past; nothing this endpoint can serve.
		return nil, nil
	}
	if days > weatherAPIMaxForecastDays {
		days = weatherAPIMaxForecastDays
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
		if field.Lat != nil && field.Lon != nil {
			values.Set("q", fmt.Sprintf("%f,%f", *field.Lat, *field.Lon))
		} else {
			q := field.City
			if field.Country != "" {
				q = fmt.Sprintf("%s,%s", field.City, field.Country)
			}
			values.Set("q", q)
		}
		values.Set("days", fmt.Sprintf("%d", days))

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
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC float64 `json:"maxtemp_c"`
					MinTempC float64 `json:"mintemp_c"`
					AvgTempC float64 `json:"avgtemp_c"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	from, to = agro.Day(from), agro.Day(to)

	var readings []weather.ProviderReading
	for _, fd := range payload.Forecast.ForecastDay {
		date, err := agro.ParseDay(fd.Date)
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}

		minT, maxT, avgT := fd.Day.MinTempC, fd.Day.MaxTempC, fd.Day.AvgTempC
		readings = append(readings, weather.ProviderReading{
			ProviderName: p.name,
			Date:         date,
			MinTempC:     &minT,
			MaxTempC:     &maxT,
			MeanTempC:    &avgT,
		})
	}

	return readings, nil
}
