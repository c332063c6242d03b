package weather

import (
	"sort"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// MergeDailyReadings combines per-day readings from multiple providers into a
// single daily series. Each temperature field is averaged over the providers
// that reported it; a field no provider reported stays absent rather than
// being fabricated as zero. The result is ascending by date, one record per
// reported day.
func MergeDailyReadings(readings []ProviderReading) []agro.WeatherRecord {
	if len(readings) == 0 {
		return nil
	}

	type accum struct {
		sumMin, sumMax, sumMean float64
		nMin, nMax, nMean       int
	}

	byDay := make(map[string]*accum)
	for _, r := range readings {
		key := agro.DayKey(r.Date)
		a, ok := byDay[key]
		if !ok {
			a = &accum{}
			byDay[key] = a
		}
		if r.MinTempC != nil {
			a.sumMin += *r.MinTempC
			a.nMin++
		}
		if r.MaxTempC != nil {
			a.sumMax += *r.MaxTempC
			a.nMax++
		}
		if r.MeanTempC != nil {
			a.sumMean += *r.MeanTempC
			a.nMean++
		}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]agro.WeatherRecord, 0, len(keys))
	for _, k := range keys {
		date, err := agro.ParseDay(k)
		if err != nil {
			continue
		}

		a := byDay[k]
		rec := agro.WeatherRecord{Date: date}
		if a.nMin > 0 {
			v := a.sumMin / float64(a.nMin)
			rec.MinTempC = &v
		}
		if a.nMax > 0 {
			v := a.sumMax / float64(a.nMax)
			rec.MaxTempC = &v
		}
		if a.nMean > 0 {
			v := a.sumMean / float64(a.nMean)
			rec.MeanTempC = &v
		}
		records = append(records, rec)
	}

	return records
}
