package gdd

import (
	"errors"
	"testing"
	"time"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

func fp(v float64) *float64 { return &v }

func TestDailyUnits(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  agro.WeatherRecord
		base float64
		want float64
	}{
		{
			name: "mean above base",
			rec:  agro.WeatherRecord{Date: date, MeanTempC: fp(20)},
			base: 10,
			want: 10,
		},
		{
			name: "mean below base clips to zero",
			rec:  agro.WeatherRecord{Date: date, MeanTempC: fp(4)},
			base: 10,
			want: 0,
		},
		{
			name: "missing mean falls back to min max average",
			rec:  agro.WeatherRecord{Date: date, MinTempC: fp(10), MaxTempC: fp(20)},
			base: 10,
			want: 5,
		},
		{
			name: "mean preferred over min max",
			rec:  agro.WeatherRecord{Date: date, MinTempC: fp(0), MaxTempC: fp(0), MeanTempC: fp(18)},
			base: 10,
			want: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DailyUnits(tt.rec, tt.base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v units, got %v", tt.want, got)
			}
		})
	}
}

func TestDailyUnitsMalformedRecord(t *testing.T) {
	rec := agro.WeatherRecord{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}

	_, err := DailyUnits(rec, 10)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestDailyUnitsMinOnlyIsMalformed(t *testing.T) {
	rec := agro.WeatherRecord{
		Date:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		MinTempC: fp(5),
	}

	_, err := DailyUnits(rec, 10)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}
