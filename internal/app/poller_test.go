package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/votenode"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStream_NeverOverlapsFetches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight, maxInFlight, calls atomic.Int32
	s := Stream[int]{
		Name:     "polls",
		Interval: time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			n := inFlight.Add(1)
			for {
				old := maxInFlight.Load()
				if n <= old || maxInFlight.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return int(calls.Add(1)), nil
		},
	}
	s.Start(ctx)

	waitFor(t, func() bool { return calls.Load() >= 5 })
	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("max concurrent fetches = %d, want 1", got)
	}
}

func TestStream_SchedulesAfterCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var starts, ends []time.Time
	s := Stream[int]{
		Name:     "polls",
		Interval: 20 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			time.Sleep(30 * time.Millisecond)
			mu.Lock()
			ends = append(ends, time.Now())
			mu.Unlock()
			return 0, nil
		},
	}
	s.Start(ctx)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(starts) >= 3
	})
	cancel()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(starts) && i-1 < len(ends); i++ {
		if gap := starts[i].Sub(ends[i-1]); gap < 15*time.Millisecond {
			t.Fatalf("fetch %d started %v after previous completion, want >= interval", i, gap)
		}
	}
}

func TestStream_KeepsPollingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &state.Store{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var calls atomic.Int32
	var delivered atomic.Int32
	s := Stream[[]votenode.Poll]{
		Name:     "polls",
		Interval: time.Millisecond,
		Fetch: func(ctx context.Context) ([]votenode.Poll, error) {
			switch calls.Add(1) {
			case 1:
				return nil, errors.New("connection refused")
			case 2:
				return nil, fmt.Errorf("%w: duplicate id", votenode.ErrMalformedPayload)
			default:
				return []votenode.Poll{{ID: "1"}}, nil
			}
		},
		Deliver: func([]votenode.Poll) { delivered.Add(1) },
		Health:  store,
		Metrics: m,
	}
	s.Start(ctx)

	waitFor(t, func() bool { return delivered.Load() >= 1 })
	cancel()

	if got := pollCycles(t, reg, "network"); got != 1 {
		t.Fatalf("network cycles = %v, want 1", got)
	}
	if got := pollCycles(t, reg, "malformed"); got != 1 {
		t.Fatalf("malformed cycles = %v, want 1", got)
	}
	if h := store.Snapshot().Stream("polls"); h.ConsecutiveFailures != 0 || h.LastSuccess.IsZero() {
		t.Fatalf("health after recovery = %+v", h)
	}
}

func TestStream_FailedCyclesAreNotDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &state.Store{}
	var calls atomic.Int32
	var delivered atomic.Int32
	s := Stream[string]{
		Name:     "node",
		Interval: time.Millisecond,
		Fetch: func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "", &votenode.StatusError{Method: "GET", Path: "/id", Code: 503}
		},
		Deliver: func(string) { delivered.Add(1) },
		Health:  store,
	}
	s.Start(ctx)

	waitFor(t, func() bool { return store.Snapshot().Stream("node").IsOffline() })
	if delivered.Load() != 0 {
		t.Fatalf("failed cycles were delivered")
	}
}

func TestStream_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s := Stream[int]{
		Name:     "polls",
		Interval: time.Millisecond,
		Fetch:    func(ctx context.Context) (int, error) { return 0, nil },
	}
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func pollCycles(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "tally_poll_cycles_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["stream"] == "polls" && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
