package plan

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

func testKey(field string) CacheKey {
	return CacheKey{
		CropID:    "corn",
		Variety:   "dent",
		FieldID:   field,
		WindowEnd: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func testCandidates() []agro.CandidatePeriod {
	completion := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	return []agro.CandidatePeriod{
		{StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), CompletionDate: &completion, AccumulatedGDD: 120},
		{StartDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
}

func TestGetOrComputeDeterminism(t *testing.T) {
	cache := NewCandidateCache()
	key := testKey("field-1")

	compute := func(context.Context) ([]agro.CandidatePeriod, error) {
		return testCandidates(), nil
	}

	first, err := cache.GetOrCompute(context.Background(), key, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.GetOrCompute(context.Background(), key, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected structurally identical candidate lists")
	}

	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 1 || stats.Entries != 1 {
		t.Fatalf("expected 1 miss, 1 hit, 1 entry; got %+v", stats)
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	cache := NewCandidateCache()
	key := testKey("field-1")

	var computations atomic.Int32
	compute := func(context.Context) ([]agro.CandidatePeriod, error) {
		computations.Add(1)
		time.Sleep(50 * time.Millisecond)
		return testCandidates(), nil
	}

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetOrCompute(context.Background(), key, compute); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := computations.Load(); n != 1 {
		t.Fatalf("expected exactly 1 computation, got %d", n)
	}

	stats := cache.Stats()
	if stats.Misses != 1 {
		t.Fatalf("expected exactly 1 miss, got %d", stats.Misses)
	}
	if stats.Hits != callers-1 {
		t.Fatalf("expected %d hits, got %d", callers-1, stats.Hits)
	}
}

func TestGetOrComputeDistinctKeys(t *testing.T) {
	cache := NewCandidateCache()

	var computations atomic.Int32
	compute := func(context.Context) ([]agro.CandidatePeriod, error) {
		computations.Add(1)
		return testCandidates(), nil
	}

	if _, err := cache.GetOrCompute(context.Background(), testKey("field-1"), compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.GetOrCompute(context.Background(), testKey("field-2"), compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := computations.Load(); n != 2 {
		t.Fatalf("expected 2 computations for 2 keys, got %d", n)
	}
	if stats := cache.Stats(); stats.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.Entries)
	}
}

func TestComputeFailureNotCached(t *testing.T) {
	cache := NewCandidateCache()
	key := testKey("field-1")
	boom := errors.New("weather source unavailable")

	_, err := cache.GetOrCompute(context.Background(), key, func(context.Context) ([]agro.CandidatePeriod, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error to propagate, got %v", err)
	}
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Fatalf("failed computation must not be cached, got %d entries", stats.Entries)
	}

	// A later retry may attempt computation again and succeed.
	got, err := cache.GetOrCompute(context.Background(), key, func(context.Context) ([]agro.CandidatePeriod, error) {
		return testCandidates(), nil
	})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected candidates on retry")
	}
}

func TestCacheKeyIgnoresStartDate(t *testing.T) {
	mv1 := agro.Move{
		FieldID: "field-1", CropID: "corn", Variety: "dent",
		RequestedStartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Window: agro.EvaluationWindow{
			Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}
	mv2 := mv1
	mv2.RequestedStartDate = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	if NewCacheKey(mv1) != NewCacheKey(mv2) {
		t.Fatal("moves differing only in start date must share a cache key")
	}
}
