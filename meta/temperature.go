package meta

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rwchcd-core/alarms"
	"rwchcd-core/hwerr"
	"rwchcd-core/internal/xsync"
	"rwchcd-core/iotypes"
)

// temperatureSource is the slice of Registry the Temperature
// aggregator needs. Depending on the narrow interface rather than
// *backend.Registry keeps this package testable against fakes and
// keeps meta from caring how a channel is physically wired.
type temperatureSource interface {
	TemperatureGet(ch iotypes.ChanIn) (iotypes.Temperature, error)
	TemperatureTimeGet(ch iotypes.ChanIn) (time.Time, error)
}

// TemperatureConfig wires one meta-input: its ordered source list,
// the combine operation, the missing-source policy, the refresh
// period P, and (for IGNORE_DEFAULT) the substitute value.
type TemperatureConfig struct {
	Name         string
	Sources      []iotypes.ChanIn
	Op           Operation
	Missing      MissingPolicy
	DefaultValue float64
	Period       time.Duration
}

type temperatureSnapshot struct {
	value iotypes.Temperature
	at    time.Time
}

// Temperature is a logical temperature input assembled from 1..N
// backend channels. A cached (value, timestamp)
// pair is published atomically as a single pointer swap so a
// lock-free reader never observes a timestamp paired with a value
// from a different update.
type Temperature struct {
	cfg    TemperatureConfig
	src    temperatureSource
	alarms alarms.Sink
	log    *zap.Logger
	clock  Clock

	configured bool
	gate       xsync.TryOnce
	snap       atomic.Pointer[temperatureSnapshot]
}

// TemperatureOption configures a Temperature at construction.
type TemperatureOption func(*Temperature)

func WithTemperatureClock(c Clock) TemperatureOption {
	return func(t *Temperature) { t.clock = c }
}
func WithTemperatureAlarms(sink alarms.Sink) TemperatureOption {
	return func(t *Temperature) { t.alarms = sink }
}
func WithTemperatureLogger(log *zap.Logger) TemperatureOption {
	return func(t *Temperature) { t.log = log }
}

func NewTemperature(cfg TemperatureConfig, src temperatureSource, opts ...TemperatureOption) *Temperature {
	t := &Temperature{
		cfg:        cfg,
		src:        src,
		alarms:     alarms.Nop{},
		log:        zap.NewNop(),
		clock:      defaultClock(),
		configured: len(cfg.Sources) > 0,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Get returns the current aggregated temperature, refreshing the
// cache first if the refresh period has elapsed. If that refresh
// fails, its error (e.g. the failing source's error under
// MissingFail, or ERSTALE) is returned with the invalidated cache.
func (t *Temperature) Get() (iotypes.Temperature, error) {
	if !t.configured {
		return iotypes.Temperature{}, hwerr.ENotConfigured
	}
	refreshErr := t.ensureFresh()

	snap := t.snap.Load()
	if snap == nil {
		return iotypes.TempUnsetVal(), hwerr.EInvalid
	}
	if refreshErr != nil {
		return snap.value, refreshErr
	}
	return snap.value, snap.value.Err()
}

// Time returns the timestamp of the last successful publish, i.e.
// the last time the cache actually changed rather than the last time
// a refresh was attempted.
func (t *Temperature) Time() (time.Time, error) {
	if !t.configured {
		return time.Time{}, hwerr.ENotConfigured
	}
	t.ensureFresh()
	snap := t.snap.Load()
	if snap == nil {
		return time.Time{}, hwerr.EInvalid
	}
	return snap.at, nil
}

func (t *Temperature) ensureFresh() error {
	now := t.clock()
	if snap := t.snap.Load(); snap != nil && now.Sub(snap.at) < t.cfg.Period {
		return nil // fast path: cache is fresh, no backend traffic
	}
	if !t.gate.TryAcquire() {
		return nil // a concurrent caller is already refreshing; use cached state
	}
	defer t.gate.Release()

	err := t.refresh(now)
	if err != nil && t.cfg.Missing != MissingIgnore && t.alarms != nil {
		t.alarms.Raise(hwerr.Of(err), "temperature input "+t.cfg.Name+" update failed")
	}
	return err
}

// refresh walks the source list once, applying the combine operation
// and the missing-source policy, and publishes the result.
func (t *Temperature) refresh(now time.Time) error {
	var (
		combined iotypes.Temperature
		have     bool
		failErr  error
	)
	for _, ch := range t.cfg.Sources {
		v, err := t.sample(ch, now)
		if err != nil {
			failErr = err
			break
		}
		if v == nil {
			continue // IGNORE-skipped source
		}
		if !have {
			combined, have = *v, true
			if t.cfg.Op == OpFirst {
				break
			}
			continue
		}
		switch t.cfg.Op {
		case OpMin:
			if v.Value < combined.Value {
				combined = *v
			}
		case OpMax:
			if v.Value > combined.Value {
				combined = *v
			}
		}
	}

	if failErr != nil {
		t.publishInvalid()
		return failErr
	}
	if !have {
		t.publishInvalid()
		return hwerr.EInvalid
	}
	t.snap.Store(&temperatureSnapshot{value: combined, at: now})
	return nil
}

// sample reads one source, checks staleness (now - t_s > 4P is
// treated as a missing source), and applies the missing-source policy
// on any failure. A nil, nil result means "skip this source" under
// IGNORE.
func (t *Temperature) sample(ch iotypes.ChanIn, now time.Time) (*iotypes.Temperature, error) {
	ts, err := t.src.TemperatureTimeGet(ch)
	if err == nil && !now.Before(ts) && now.Sub(ts) > 4*t.cfg.Period {
		err = hwerr.ERStale
	}
	if err != nil {
		return t.applyMissing(err)
	}
	v, err := t.src.TemperatureGet(ch)
	if err != nil {
		return t.applyMissing(err)
	}
	if !v.IsOk() {
		return t.applyMissing(v.Err())
	}
	return &v, nil
}

func (t *Temperature) applyMissing(cause error) (*iotypes.Temperature, error) {
	switch t.cfg.Missing {
	case MissingIgnore:
		return nil, nil
	case MissingIgnoreDefault:
		v := iotypes.TempValue(t.cfg.DefaultValue)
		return &v, nil
	default: // MissingFail
		return nil, cause
	}
}

// publishInvalid marks the cache TEMPINVALID without advancing the
// timestamp, so a caller can still see when the value was last good.
func (t *Temperature) publishInvalid() {
	at := time.Time{}
	if prev := t.snap.Load(); prev != nil {
		at = prev.at
	}
	t.snap.Store(&temperatureSnapshot{value: iotypes.TempInvalidVal(), at: at})
}
