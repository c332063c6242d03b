package plan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/gdd"
)

// DefaultMoveConcurrency bounds how many moves are resolved in parallel
// within one adjustment session.
const DefaultMoveConcurrency = 8

// WeatherSource supplies the daily weather series for a field, ascending by
// date. Within a session the same range always yields the same series.
type WeatherSource interface {
	Fetch(ctx context.Context, fieldID string, from, to time.Time) ([]agro.WeatherRecord, error)
}

// CropCatalog resolves crop/variety pairs to their profiles.
type CropCatalog interface {
	Lookup(cropID, variety string) (agro.CropProfile, error)
}

// Planner resolves move requests into completion dates and feasibility
// verdicts, reusing candidate computations through a session cache.
type Planner struct {
	weather         WeatherSource
	catalog         CropCatalog
	maxLookahead    int
	filterRedundant bool
	concurrency     int
	log             *logrus.Logger
}

// NewPlanner creates a Planner. maxLookahead is the number of days past a
// candidate start date that accumulation may scan.
func NewPlanner(weather WeatherSource, catalog CropCatalog, maxLookahead int, filterRedundant bool, log *logrus.Logger) *Planner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Planner{
		weather:         weather,
		catalog:         catalog,
		maxLookahead:    maxLookahead,
		filterRedundant: filterRedundant,
		concurrency:     DefaultMoveConcurrency,
		log:             log,
	}
}

// AdjustAllocations resolves a batch of moves against the session cache.
// Results are returned in input order regardless of how moves interleave on
// the cache. A move that fails to resolve (unknown crop, unusable weather)
// carries its error in its own result and never aborts the rest of the batch.
func (p *Planner) AdjustAllocations(ctx context.Context, moves []agro.Move, cache *CandidateCache) ([]agro.MoveResult, error) {
	session := uuid.NewString()
	p.log.WithFields(logrus.Fields{
		"session": session,
		"moves":   len(moves),
	}).Info("adjusting allocations")

	results := make([]agro.MoveResult, len(moves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, mv := range moves {
		i, mv := i, mv
		g.Go(func() error {
			results[i] = p.resolveMove(gctx, mv, cache)
			if results[i].Err != nil {
				p.log.WithFields(logrus.Fields{
					"session": session,
					"field":   mv.FieldID,
					"crop":    mv.CropID,
					"variety": mv.Variety,
				}).WithError(results[i].Err).Warn("move failed to resolve")
			}
			return nil
		})
	}

	// Workers record per-move failures on their own result and return nil,
	// so Wait never fails; the batch always yields one result per move.
	_ = g.Wait()

	stats := cache.Stats()
	p.log.WithFields(logrus.Fields{
		"session": session,
		"hits":    stats.Hits,
		"misses":  stats.Misses,
	}).Info("allocation adjustment complete")

	return results, nil
}

// Candidates computes (or reuses) the full candidate set for one
// crop/variety/field/window tuple.
func (p *Planner) Candidates(ctx context.Context, fieldID, cropID, variety string, window agro.EvaluationWindow, cache *CandidateCache) ([]agro.CandidatePeriod, error) {
	profile, err := p.catalog.Lookup(cropID, variety)
	if err != nil {
		return nil, err
	}
	key := NewCacheKey(agro.Move{FieldID: fieldID, CropID: cropID, Variety: variety, Window: window})
	return cache.GetOrCompute(ctx, key, p.computeFunc(profile, fieldID, window))
}

func (p *Planner) resolveMove(ctx context.Context, mv agro.Move, cache *CandidateCache) agro.MoveResult {
	result := agro.MoveResult{Move: mv}

	profile, err := p.catalog.Lookup(mv.CropID, mv.Variety)
	if err != nil {
		result.Err = err
		return result
	}

	candidates, err := cache.GetOrCompute(ctx, NewCacheKey(mv), p.computeFunc(profile, mv.FieldID, mv.Window))
	if err != nil {
		result.Err = err
		return result
	}

	// The requested start date must match a candidate exactly; a date outside
	// the evaluation window is simply infeasible.
	for _, c := range candidates {
		if agro.SameDay(c.StartDate, mv.RequestedStartDate) {
			result.CompletionDate = c.CompletionDate
			result.AccumulatedGDD = c.AccumulatedGDD
			result.Feasible = c.CompletionDate != nil
			return result
		}
	}
	return result
}

// computeFunc builds the cache miss computation for one tuple: fetch the
// weather series covering the window plus lookahead, then run the candidate
// search over it.
func (p *Planner) computeFunc(profile agro.CropProfile, fieldID string, window agro.EvaluationWindow) ComputeFunc {
	return func(ctx context.Context) ([]agro.CandidatePeriod, error) {
		from := agro.Day(window.Start)
		to := agro.Day(window.End).AddDate(0, 0, p.maxLookahead)

		series, err := p.weather.Fetch(ctx, fieldID, from, to)
		if err != nil {
			return nil, err
		}
		return gdd.ComputeCandidates(profile, series, window, p.maxLookahead, p.filterRedundant)
	}
}
