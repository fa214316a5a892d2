// Package metrics exposes tally's Prometheus counters.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by poll cycles and dispatches.
const (
	OutcomeOK        = "ok"
	OutcomeNetwork   = "network"
	OutcomeMalformed = "malformed"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	pollCycles    *prometheus.CounterVec
	diffEvents    *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	mirrorRecords prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		pollCycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_poll_cycles_total",
			Help: "Completed poll cycles by stream and outcome.",
		}, []string{"stream", "outcome"}),
		diffEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_diff_events_total",
			Help: "Reconciliation events applied to the view, by operation.",
		}, []string{"op"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_dispatch_total",
			Help: "Dispatched commands by command and outcome.",
		}, []string{"command", "outcome"}),
		mirrorRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "tally_mirror_records",
			Help: "Records currently held in the local mirror.",
		}),
	}
}

// ObservePoll counts one finished poll cycle.
func (m *Metrics) ObservePoll(stream, outcome string) {
	if m == nil {
		return
	}
	m.pollCycles.WithLabelValues(stream, outcome).Inc()
}

// ObserveDiff counts the events of one applied diff.
func (m *Metrics) ObserveDiff(removed, appended, replaced int) {
	if m == nil {
		return
	}
	m.diffEvents.WithLabelValues("remove").Add(float64(removed))
	m.diffEvents.WithLabelValues("append").Add(float64(appended))
	m.diffEvents.WithLabelValues("replace").Add(float64(replaced))
}

// ObserveDispatch counts one finished command.
func (m *Metrics) ObserveDispatch(command, outcome string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(command, outcome).Inc()
}

// SetMirrorSize records the number of mirrored records.
func (m *Metrics) SetMirrorSize(n int) {
	if m == nil {
		return
	}
	m.mirrorRecords.Set(float64(n))
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
