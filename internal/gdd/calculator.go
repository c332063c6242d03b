// Package gdd implements growing-degree-day accumulation and the candidate
// start-date search used by the allocation planner.
package gdd

import (
	"errors"
	"fmt"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

var (
	// ErrMalformedRecord is returned when a weather record carries neither a
	// mean temperature nor the min/max pair needed to derive one. Such a day
	// cannot be trusted as zero accumulation.
	ErrMalformedRecord = errors.New("weather record has no usable temperature data")

	// ErrSeriesGap is returned when a weather series skips a calendar date.
	// A day with no record at all is a data-quality failure, not a zero-unit day.
	ErrSeriesGap = errors.New("weather series has a missing calendar date")
)

// DailyUnits converts one daily weather record into thermal units above the
// crop's base temperature. Sub-threshold days contribute zero; there is no
// negative accumulation. When the mean temperature is absent it falls back to
// (min+max)/2.
func DailyUnits(rec agro.WeatherRecord, baseTempC float64) (float64, error) {
	var mean float64
	switch {
	case rec.MeanTempC != nil:
		mean = *rec.MeanTempC
	case rec.MinTempC != nil && rec.MaxTempC != nil:
		mean = (*rec.MinTempC + *rec.MaxTempC) / 2
	default:
		return 0, fmt.Errorf("%w: %s", ErrMalformedRecord, agro.DayKey(rec.Date))
	}

	units := mean - baseTempC
	if units < 0 {
		units = 0
	}
	return units, nil
}
