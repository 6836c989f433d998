// Package tick implements the global tick driver: a single periodic
// loop that samples every backend, runs the plant callback, and
// flushes every backend's staged outputs, in that fixed order.
// Grounded on services/hal/internal/worker/measure_worker.go's
// Start(ctx) shape: one goroutine, one context.Context for shutdown,
// one util.ResetTimer driven select loop, generalized from an async
// collect-queue to a synchronous fixed-period input/plant/output
// cycle.
package tick

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rwchcd-core/internal/util"
)

// Registry is the slice of backend.Registry the driver needs.
type Registry interface {
	Input() error
	Output() error
}

// Config configures the tick driver.
type Config struct {
	Period time.Duration
}

// Driver runs one Registry.Input / plant / Registry.Output cycle
// every Period, until its context is cancelled.
type Driver struct {
	cfg   Config
	reg   Registry
	plant func()
	log   *zap.Logger

	ticks uint64
}

type Option func(*Driver)

func WithLogger(log *zap.Logger) Option { return func(d *Driver) { d.log = log } }

// NewDriver builds a driver. plant may be nil for a pure I/O-pump
// configuration (e.g. exercising backends with no control logic yet).
func NewDriver(cfg Config, reg Registry, plant func(), opts ...Option) *Driver {
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	d := &Driver{cfg: cfg, reg: reg, plant: plant, log: zap.NewNop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Ticks reports how many full cycles have completed, mainly for tests
// and diagnostics.
func (d *Driver) Ticks() uint64 { return d.ticks }

// Run blocks, driving the tick loop until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	timer := time.NewTimer(d.cfg.Period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.cycle()
			util.ResetTimer(timer, d.cfg.Period)
		}
	}
}

func (d *Driver) cycle() {
	if err := d.reg.Input(); err != nil {
		d.log.Warn("tick input phase reported failures", zap.Error(err))
	}
	if d.plant != nil {
		d.plant()
	}
	if err := d.reg.Output(); err != nil {
		d.log.Warn("tick output phase reported failures", zap.Error(err))
	}
	d.ticks++
}
