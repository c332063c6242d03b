package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

var (
	// ErrNotFound is returned when no series data is available for a field.
	ErrNotFound = errors.New("no weather series for field")
)

// fieldSeries holds the date-ordered daily records for one field.
type fieldSeries struct {
	records []agro.WeatherRecord
}

// MemoryStore is a concurrency-safe in-memory store of daily weather series,
// keyed by field id. Records are merged by calendar date, so re-fetching a
// range replaces the old values instead of duplicating days.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]*fieldSeries

	// retention configuration
	maxDays int           // max number of daily records per field (0 = unlimited)
	maxAge  time.Duration // max age relative to the newest record (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore with optional retention limits.
func NewMemoryStore(maxDays int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:    make(map[string]*fieldSeries),
		maxDays: maxDays,
		maxAge:  maxAge,
	}
}

// SaveSeries merges records into the field's series and enforces retention.
// Incoming records overwrite stored records on the same date.
func (s *MemoryStore) SaveSeries(fieldID string, records []agro.WeatherRecord) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.data[fieldID]
	if !ok {
		series = &fieldSeries{}
		s.data[fieldID] = series
	}

	byDate := make(map[string]agro.WeatherRecord, len(series.records)+len(records))
	for _, rec := range series.records {
		byDate[agro.DayKey(rec.Date)] = rec
	}
	for _, rec := range records {
		rec.Date = agro.Day(rec.Date)
		byDate[agro.DayKey(rec.Date)] = rec
	}

	merged := make([]agro.WeatherRecord, 0, len(byDate))
	for _, rec := range byDate {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	// Enforce retention by age, relative to the newest stored date so that
	// historical backfills are not pruned by wall-clock time.
	if s.maxAge > 0 && len(merged) > 0 {
		cutoff := merged[len(merged)-1].Date.Add(-s.maxAge)
		i := 0
		for ; i < len(merged); i++ {
			if !merged[i].Date.Before(cutoff) {
				break
			}
		}
		merged = merged[i:]
	}

	// Enforce retention by count.
	if s.maxDays > 0 && len(merged) > s.maxDays {
		merged = merged[len(merged)-s.maxDays:]
	}

	series.records = merged
}

// GetRange returns the stored records for a field between from and to
// (inclusive), ascending by date.
func (s *MemoryStore) GetRange(fieldID string, from, to time.Time) ([]agro.WeatherRecord, error) {
	from, to = agro.Day(from), agro.Day(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.data[fieldID]
	if !ok || len(series.records) == 0 {
		return nil, ErrNotFound
	}

	var result []agro.WeatherRecord
	for _, rec := range series.records {
		if !rec.Date.Before(from) && !rec.Date.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Covers reports whether the stored series spans every day of [from, to].
func (s *MemoryStore) Covers(fieldID string, from, to time.Time) bool {
	records, err := s.GetRange(fieldID, from, to)
	if err != nil {
		return false
	}
	want := agro.DaysBetween(from, to) + 1
	return len(records) == want
}
