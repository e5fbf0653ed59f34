// Package agentmetrics exposes the agent's Prometheus instrumentation: frame
// counts by verdict, replies by type, worker runs, and the current session
// state, scraped over an optional local HTTP listener.
package agentmetrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the agent's Prometheus instrument set, registered against a
// dedicated registry so Serve never collides with a process-wide default
// registerer shared with other metrics producers.
type Metrics struct {
	registry *prometheus.Registry

	FramesSeen    *prometheus.CounterVec
	FramesDropped *prometheus.CounterVec
	RepliesSent   *prometheus.CounterVec
	WorkerRuns    prometheus.Counter
	SessionState  *prometheus.GaugeVec
}

// New builds a fresh, independently registered metric set.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		FramesSeen: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "udrone",
			Name:      "frames_seen_total",
			Help:      "Inbound frames read off the multicast socket, by classification.",
		}, []string{"class"}),
		FramesDropped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "udrone",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped before dispatch, by reason.",
		}, []string{"reason"}),
		RepliesSent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "udrone",
			Name:      "replies_sent_total",
			Help:      "Outbound replies sent, by type.",
		}, []string{"type"}),
		WorkerRuns: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "udrone",
			Name:      "worker_runs_total",
			Help:      "Non-atomic handler executions started.",
		}),
		SessionState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "udrone",
			Name:      "session_state",
			Help:      "1 for the session's current assignment state, 0 for the others.",
		}, []string{"state"}),
	}

	return m
}

// SetSessionState marks state as current and every other known state as
// inactive, so a Prometheus query for udrone_session_state == 1 always
// names exactly one series.
func (m *Metrics) SetSessionState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1.0
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}

// Serve starts the metrics HTTP listener on addr and blocks until ctx is
// cancelled, at which point it shuts the server down gracefully.
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
