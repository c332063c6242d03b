package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/store"
)

// ErrUnknownField is returned when a field id is not registered with the service.
var ErrUnknownField = errors.New("unknown field")

// Service orchestrates fetching daily series from multiple providers and
// serving them to the planner as deterministic per-field lookups.
type Service struct {
	store     SeriesStore
	providers []Provider
	log       *logrus.Logger

	mu     sync.RWMutex
	fields map[string]agro.Field
}

// NewService creates a new Service for the given fields.
func NewService(seriesStore SeriesStore, providers []Provider, fields []agro.Field, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	byID := make(map[string]agro.Field, len(fields))
	for _, f := range fields {
		byID[f.FieldID] = f
	}
	return &Service{
		store:     seriesStore,
		providers: providers,
		log:       log,
		fields:    byID,
	}
}

// Fields returns the registered fields.
func (s *Service) Fields() []agro.Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agro.Field, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f)
	}
	return out
}

// Field looks up a registered field by id.
func (s *Service) Field(fieldID string) (agro.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[fieldID]
	if !ok {
		return agro.Field{}, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	return f, nil
}

// FetchAndStore fetches daily data from all providers concurrently for the
// given field and range, merges successful readings per day, and stores the
// resulting series.
func (s *Service) FetchAndStore(ctx context.Context, field agro.Field, from, to time.Time) error {
	if len(s.providers) == 0 {
		return fmt.Errorf("no weather providers configured")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			recs, err := p.FetchDaily(ctx, field, from, to)
			if err != nil {
				// Log and continue; we want partial success when possible.
				s.log.WithFields(logrus.Fields{
					"provider": p.Name(),
					"field":    field.FieldID,
				}).WithError(err).Warn("provider fetch failed")
				return
			}

			mu.Lock()
			readings = append(readings, recs...)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		// No providers succeeded; keep whatever series is already stored.
		s.log.WithField("field", field.FieldID).Warn("no successful provider readings")
		return fmt.Errorf("no provider data for field %s", field.FieldID)
	}

	s.store.SaveSeries(field.FieldID, MergeDailyReadings(readings))
	return nil
}

// Fetch returns the daily series for a field over [from, to], ascending by
// date. Stored data is served directly; on a miss or partial coverage the
// providers are queried once and the merged result stored, so repeated calls
// within a session observe an identical series.
func (s *Service) Fetch(ctx context.Context, fieldID string, from, to time.Time) ([]agro.WeatherRecord, error) {
	field, err := s.Field(fieldID)
	if err != nil {
		return nil, err
	}

	from, to = agro.Day(from), agro.Day(to)

	if s.store.Covers(fieldID, from, to) {
		return s.store.GetRange(fieldID, from, to)
	}

	if err := s.FetchAndStore(ctx, field, from, to); err != nil {
		// Serve whatever partial series exists; the candidate search treats
		// missing coverage as incompleteness, not an error.
		if records, gerr := s.store.GetRange(fieldID, from, to); gerr == nil {
			return records, nil
		}
		return nil, err
	}

	records, err := s.store.GetRange(fieldID, from, to)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// GetRange serves stored records without triggering provider fetches.
func (s *Service) GetRange(fieldID string, from, to time.Time) ([]agro.WeatherRecord, error) {
	if _, err := s.Field(fieldID); err != nil {
		return nil, err
	}
	return s.store.GetRange(fieldID, from, to)
}
