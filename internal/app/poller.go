package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/votenode"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultNodeInterval = 5 * time.Second
)

// Stream repeatedly fetches one endpoint and hands each successful result to
// Deliver. The next fetch is scheduled Interval after the previous one
// completes, so two fetches of the same stream never overlap.
type Stream[T any] struct {
	Name     string
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	Deliver  func(T)

	Health  *state.Store
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Start runs the stream on its own goroutine. It returns immediately.
func (s Stream[T]) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run polls until ctx is cancelled.
func (s Stream[T]) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("stream", s.Name)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.cycle(ctx, logger)
		timer.Reset(interval)
	}
}

func (s Stream[T]) cycle(ctx context.Context, logger *log.Logger) {
	value, err := s.Fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if s.Health != nil {
		s.Health.Record(s.Name, err)
	}
	switch {
	case err == nil:
		s.Metrics.ObservePoll(s.Name, metrics.OutcomeOK)
		if s.Deliver != nil {
			s.Deliver(value)
		}
	case votenode.IsMalformed(err):
		s.Metrics.ObservePoll(s.Name, metrics.OutcomeMalformed)
		logger.Error("poll cycle discarded", "err", err)
	default:
		s.Metrics.ObservePoll(s.Name, metrics.OutcomeNetwork)
		logger.Warn("poll cycle failed", "err", err)
	}
}
