package logsink

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PrometheusSink is the shipped Sink adapter. Every registered
// Source's metrics are exposed as prometheus.Gauge values on a
// dedicated registry (never the global default registry, to avoid
// collisions with other instrumented libraries sharing the process,
// grounded on octoreflex's internal/observability/metrics.go), named
// "<basename>_<identifier>_<metric>".
type PrometheusSink struct {
	log      *zap.Logger
	registry *prometheus.Registry

	mu      sync.Mutex
	cancels []context.CancelFunc
}

func NewPrometheusSink(registry *prometheus.Registry, log *zap.Logger) *PrometheusSink {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PrometheusSink{log: log, registry: registry}
}

// Registry exposes the underlying prometheus.Registry, e.g. to mount
// promhttp.HandlerFor it on a metrics endpoint.
func (s *PrometheusSink) Registry() *prometheus.Registry { return s.registry }

// RegisterSource starts a background ticker that samples src's
// metrics every src.Cadence and publishes them as gauges. The ticker
// runs until Close.
func (s *PrometheusSink) RegisterSource(src Source) error {
	gauges := make([]prometheus.Gauge, len(src.Metrics))
	for i, m := range src.Metrics {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: src.Basename + "_" + src.Identifier + "_" + m.Name,
			Help: "rwchcd-core " + src.Identifier + " gauge for " + m.Name,
		})
		if err := s.registry.Register(g); err != nil {
			return err
		}
		gauges[i] = g
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()

	s.log.Info("registered log source",
		zap.String("basename", src.Basename),
		zap.String("identifier", src.Identifier),
		zap.Int("metrics", len(gauges)))

	go s.sampleLoop(ctx, src, gauges)
	return nil
}

func (s *PrometheusSink) sampleLoop(ctx context.Context, src Source, gauges []prometheus.Gauge) {
	cadence := src.Cadence
	if cadence <= 0 {
		cadence = 10 * time.Second
	}
	t := time.NewTicker(cadence)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for i, m := range src.Metrics {
				v, ok := m.Read()
				if !ok {
					continue
				}
				gauges[i].Set(v)
			}
		}
	}
}

// Close stops every registered source's sampling goroutine.
func (s *PrometheusSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cancels {
		c()
	}
	s.cancels = nil
}
