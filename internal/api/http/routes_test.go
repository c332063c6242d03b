package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/catalog"
	"github.com/agroplan/crop-window-planner/internal/plan"
	"github.com/agroplan/crop-window-planner/internal/store"
	"github.com/agroplan/crop-window-planner/internal/weather"
)

// newTestApp builds a Fiber app whose store is preloaded with warm daily
// weather so no provider calls happen during tests.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	seriesStore := store.NewMemoryStore(0, 0)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := make([]agro.WeatherRecord, 0, 30)
	for i := 0; i < 30; i++ {
		mean := 20.0
		records = append(records, agro.WeatherRecord{
			Date:      start.AddDate(0, 0, i),
			MeanTempC: &mean,
		})
	}
	seriesStore.SaveSeries("field-1", records)

	fields := []agro.Field{{FieldID: "field-1", City: "Lyon", Country: "FR"}}
	service := weather.NewService(seriesStore, nil, fields, nil)

	crops := catalog.New(agro.CropProfile{
		CropID: "corn", Variety: "dent", BaseTempC: 10, GDDRequirement: 100,
	})
	planner := plan.NewPlanner(service, crops, 10, true, nil)

	app := fiber.New()
	RegisterRoutes(app, planner, service)
	return app
}

func TestCandidatesQueryValidation(t *testing.T) {
	app := newTestApp(t)

	// Missing crop parameter should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields/field-1/candidates?variety=dent&from=2024-01-01&to=2024-01-05", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Inverted range should also return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/fields/field-1/candidates?crop=corn&variety=dent&from=2024-01-05&to=2024-01-01", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCandidatesEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields/field-1/candidates?crop=corn&variety=dent&from=2024-01-01&to=2024-01-05", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Candidates []agro.CandidatePeriod `json:"candidates"`
		Best       *agro.CandidatePeriod  `json:"best"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(body.Candidates))
	}
	if body.Best == nil {
		t.Fatal("expected a best candidate")
	}
}

func TestCandidatesUnknownCrop(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields/field-1/candidates?crop=kale&variety=curly&from=2024-01-01&to=2024-01-05", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestAdjustEndpoint(t *testing.T) {
	app := newTestApp(t)

	body := `{
		"moves": [
			{
				"fieldId": "field-1",
				"cropId": "corn",
				"variety": "dent",
				"requestedStartDate": "2024-01-02",
				"windowStart": "2024-01-01",
				"windowEnd": "2024-01-05"
			}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan/adjust", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var out struct {
		Results []struct {
			CompletionDate *time.Time `json:"completionDate"`
			Feasible       bool       `json:"feasible"`
			Error          string     `json:"error"`
		} `json:"results"`
		CacheStats plan.CacheStats `json:"cacheStats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Results))
	}
	if !out.Results[0].Feasible {
		t.Fatalf("expected feasible move, error=%q", out.Results[0].Error)
	}
	if out.Results[0].CompletionDate == nil {
		t.Fatal("expected a completion date")
	}
	if out.CacheStats.Misses != 1 {
		t.Fatalf("expected 1 cache miss, got %d", out.CacheStats.Misses)
	}
}

func TestAdjustValidation(t *testing.T) {
	app := newTestApp(t)

	// Empty move list should return 400.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan/adjust", strings.NewReader(`{"moves": []}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Malformed date should return 400.
	bad := `{"moves":[{"fieldId":"f","cropId":"c","variety":"v","requestedStartDate":"not-a-date","windowStart":"2024-01-01","windowEnd":"2024-01-05"}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/plan/adjust", strings.NewReader(bad))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields/field-1/weather?from=2024-01-01&to=2024-01-03", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Records []agro.WeatherRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(body.Records))
	}

	// Unknown field should return 404.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/fields/nowhere/weather?from=2024-01-01&to=2024-01-03", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
