package gdd

import (
	"fmt"
	"sort"
	"time"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

// ComputeCandidates enumerates every candidate start date in the evaluation
// window (inclusive, daily granularity) and computes the completion date each
// one reaches by accumulating daily thermal units against the series.
//
// Daily units are prefix-summed once over the whole series, so each start
// date's completion search is a binary search instead of a re-scan; with
// units never negative the prefix array is non-decreasing.
//
// maxLookahead bounds how far past a start date accumulation may run: the
// last scanned day is startDate+maxLookahead. A start date whose coverage
// runs out before the requirement is met yields a candidate with a nil
// CompletionDate; insufficient data is a normal outcome, not an error.
//
// When filterRedundant is set, a candidate whose completion date equals the
// next (later-start) candidate's is marked redundant: the later start
// dominates with the same outcome and less field occupancy. Redundant
// candidates stay in the returned list so exact start-date lookups still
// find them.
func ComputeCandidates(
	profile agro.CropProfile,
	series []agro.WeatherRecord,
	window agro.EvaluationWindow,
	maxLookahead int,
	filterRedundant bool,
) ([]agro.CandidatePeriod, error) {
	start := agro.Day(window.Start)
	end := agro.Day(window.End)
	if end.Before(start) {
		return nil, fmt.Errorf("evaluation window end %s precedes start %s",
			agro.DayKey(end), agro.DayKey(start))
	}
	if maxLookahead < 0 {
		return nil, fmt.Errorf("max lookahead must be non-negative, got %d", maxLookahead)
	}

	prefix, err := prefixUnits(series, profile.BaseTempC)
	if err != nil {
		return nil, err
	}

	days := agro.DaysBetween(start, end) + 1
	candidates := make([]agro.CandidatePeriod, 0, days)

	for i := 0; i < days; i++ {
		startDate := start.AddDate(0, 0, i)
		candidates = append(candidates, searchCompletion(profile, series, prefix, startDate, maxLookahead))
	}

	if filterRedundant {
		markRedundant(candidates)
	}
	return candidates, nil
}

// prefixUnits converts the series into a prefix-sum array of daily units:
// prefix[i] is the total accumulated over series[:i]. It also verifies the
// series is contiguous; a skipped calendar date is a data error.
func prefixUnits(series []agro.WeatherRecord, baseTempC float64) ([]float64, error) {
	prefix := make([]float64, len(series)+1)
	for i, rec := range series {
		if i > 0 {
			if gap := agro.DaysBetween(series[i-1].Date, rec.Date); gap != 1 {
				return nil, fmt.Errorf("%w: between %s and %s",
					ErrSeriesGap, agro.DayKey(series[i-1].Date), agro.DayKey(rec.Date))
			}
		}
		units, err := DailyUnits(rec, baseTempC)
		if err != nil {
			return nil, err
		}
		prefix[i+1] = prefix[i] + units
	}
	return prefix, nil
}

// searchCompletion resolves one start date against the prefix array.
func searchCompletion(
	profile agro.CropProfile,
	series []agro.WeatherRecord,
	prefix []float64,
	startDate time.Time,
	maxLookahead int,
) agro.CandidatePeriod {
	cand := agro.CandidatePeriod{StartDate: startDate}
	if len(series) == 0 {
		return cand
	}

	offset := agro.DaysBetween(series[0].Date, startDate)
	if offset < 0 || offset >= len(series) {
		// No coverage at the start date itself.
		return cand
	}

	// Last scanned day is startDate+maxLookahead, clamped to the series.
	limit := offset + maxLookahead + 1
	if limit > len(series) {
		limit = len(series)
	}

	target := prefix[offset] + profile.GDDRequirement

	// Smallest j in (offset, limit] with prefix[j] >= target.
	k := sort.Search(limit-offset, func(i int) bool {
		return prefix[offset+1+i] >= target
	})
	if j := offset + 1 + k; j <= limit && prefix[j] >= target {
		completion := series[j-1].Date
		cand.CompletionDate = &completion
		cand.AccumulatedGDD = prefix[j] - prefix[offset]
		return cand
	}

	// Requirement not met within the horizon covered by data.
	cand.AccumulatedGDD = prefix[limit] - prefix[offset]
	return cand
}

// markRedundant marks every candidate whose completion date is shared by the
// next candidate. Among a run of equal completion dates only the latest start
// survives unmarked.
func markRedundant(candidates []agro.CandidatePeriod) {
	for i := 0; i+1 < len(candidates); i++ {
		cur, next := candidates[i].CompletionDate, candidates[i+1].CompletionDate
		if cur != nil && next != nil && cur.Equal(*next) {
			candidates[i].IsRedundant = true
		}
	}
}

// BestCandidate selects the dominating candidate: the earliest completion
// date among non-redundant completed candidates, preferring the later start
// when two tie. Returns false when nothing in the list completed.
func BestCandidate(candidates []agro.CandidatePeriod) (agro.CandidatePeriod, bool) {
	var best agro.CandidatePeriod
	found := false
	for _, c := range candidates {
		if c.IsRedundant || c.CompletionDate == nil {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		switch {
		case c.CompletionDate.Before(*best.CompletionDate):
			best = c
		case c.CompletionDate.Equal(*best.CompletionDate) && c.StartDate.After(best.StartDate):
			best = c
		}
	}
	return best, found
}
