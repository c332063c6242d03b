package agro

import (
	"time"
)

// WeatherRecord is one day of observed or forecast weather for a field.
// Temperatures are in °C; a nil pointer means the value was not reported
// by any provider for that day.
type WeatherRecord struct {
	Date      time.Time `json:"date"` // normalized to UTC midnight
	MinTempC  *float64  `json:"minTempC,omitempty"`
	MaxTempC  *float64  `json:"maxTempC,omitempty"`
	MeanTempC *float64  `json:"meanTempC,omitempty"`
}

// CropProfile identifies a crop/variety pair and its thermal maturity threshold.
type CropProfile struct {
	CropID         string  `json:"cropId" yaml:"crop_id"`
	Variety        string  `json:"variety" yaml:"variety"`
	BaseTempC      float64 `json:"baseTempC" yaml:"base_temperature_c"`
	GDDRequirement float64 `json:"gddRequirement" yaml:"gdd_requirement"`
}

// Key returns a canonical string key for indexing this profile in catalogs.
func (p CropProfile) Key() string {
	return p.CropID + ":" + p.Variety
}

// Field identifies a plot for which a weather series applies.
// Lat/Lon may be absent, in which case City/Country are geocoded on demand.
type Field struct {
	FieldID string   `json:"fieldId"`
	Name    string   `json:"name,omitempty"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// EvaluationWindow is the inclusive span of candidate start dates under
// consideration for planting.
type EvaluationWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CandidatePeriod is one hypothetical start date together with its computed
// outcome. A nil CompletionDate means the crop did not reach its requirement
// within the searched horizon. Immutable once produced.
type CandidatePeriod struct {
	StartDate      time.Time  `json:"startDate"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	AccumulatedGDD float64    `json:"accumulatedGdd"`
	IsRedundant    bool       `json:"isRedundant"`
}

// Move is a request to (re)place a crop/variety on a field starting at a date.
type Move struct {
	FieldID            string           `json:"fieldId"`
	CropID             string           `json:"cropId"`
	Variety            string           `json:"variety"`
	RequestedStartDate time.Time        `json:"requestedStartDate"`
	Window             EvaluationWindow `json:"window"`
}

// MoveResult is the per-move outcome of an allocation adjustment.
// Err is set when the move could not be resolved at all (unknown crop,
// unusable weather series); it never aborts the rest of the batch.
type MoveResult struct {
	Move           Move       `json:"move"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	AccumulatedGDD float64    `json:"accumulatedGdd"`
	Feasible       bool       `json:"feasible"`
	Err            error      `json:"-"`
}
