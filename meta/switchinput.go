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

type switchSource interface {
	SwitchGet(ch iotypes.ChanIn) (bool, error)
	SwitchTimeGet(ch iotypes.ChanIn) (time.Time, error)
}

// SwitchConfig wires one boolean meta-input.
type SwitchConfig struct {
	Name         string
	Sources      []iotypes.ChanIn
	Op           SwitchOperation
	Missing      MissingPolicy
	DefaultValue bool
	Period       time.Duration
}

type switchSnapshot struct {
	state   bool
	errored bool
	at      time.Time
}

// Switch is a logical boolean input assembled from 1..N backend
// channels. Unlike Temperature, a failed refresh
// does not blank the cached state: the error flag is raised but the
// last known-good state is preserved, since "the heating demand was
// last seen on" is more useful than "unknown" to the plant loop.
type Switch struct {
	cfg    SwitchConfig
	src    switchSource
	alarms alarms.Sink
	log    *zap.Logger
	clock  Clock

	configured bool
	gate       xsync.TryOnce
	snap       atomic.Pointer[switchSnapshot]
}

type SwitchOption func(*Switch)

func WithSwitchClock(c Clock) SwitchOption        { return func(s *Switch) { s.clock = c } }
func WithSwitchAlarms(sink alarms.Sink) SwitchOption { return func(s *Switch) { s.alarms = sink } }
func WithSwitchLogger(log *zap.Logger) SwitchOption  { return func(s *Switch) { s.log = log } }

func NewSwitch(cfg SwitchConfig, src switchSource, opts ...SwitchOption) *Switch {
	s := &Switch{
		cfg:        cfg,
		src:        src,
		alarms:     alarms.Nop{},
		log:        zap.NewNop(),
		clock:      defaultClock(),
		configured: len(cfg.Sources) > 0,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the current aggregated switch state. If this call's
// refresh fails, its error is returned (EINVALID when no source
// contributed a sample); a cache left errored by an earlier refresh
// reads as EINVALID. In both cases the returned bool is still the
// last known-good state, not a zero value.
func (s *Switch) Get() (bool, error) {
	if !s.configured {
		return false, hwerr.ENotConfigured
	}
	refreshErr := s.ensureFresh()
	snap := s.snap.Load()
	if snap == nil {
		return false, hwerr.EInvalid
	}
	if refreshErr != nil {
		return snap.state, refreshErr
	}
	if snap.errored {
		return snap.state, hwerr.EInvalid
	}
	return snap.state, nil
}

func (s *Switch) ensureFresh() error {
	now := s.clock()
	if snap := s.snap.Load(); snap != nil && now.Sub(snap.at) < s.cfg.Period {
		return nil
	}
	if !s.gate.TryAcquire() {
		return nil
	}
	defer s.gate.Release()

	err := s.refresh(now)
	if err != nil && s.cfg.Missing != MissingIgnore {
		s.alarms.Raise(hwerr.Of(err), "switch input "+s.cfg.Name+" update failed")
	}
	return err
}

func (s *Switch) refresh(now time.Time) error {
	var (
		combined bool
		have     bool
		failErr  error
	)
	switch s.cfg.Op {
	case SwitchAnd:
		combined = true
	case SwitchOr:
		combined = false
	}

	for _, ch := range s.cfg.Sources {
		v, err := s.sample(ch, now)
		if err != nil {
			failErr = err
			break
		}
		if v == nil {
			continue
		}
		if !have {
			combined, have = *v, true
			if s.cfg.Op == SwitchFirst {
				break
			}
			continue
		}
		switch s.cfg.Op {
		case SwitchAnd:
			combined = combined && *v
		case SwitchOr:
			combined = combined || *v
		}
	}

	if failErr != nil {
		s.markErrored(now)
		return failErr
	}
	if !have {
		s.markErrored(now)
		return hwerr.EInvalid
	}
	s.snap.Store(&switchSnapshot{state: combined, errored: false, at: now})
	return nil
}

func (s *Switch) sample(ch iotypes.ChanIn, now time.Time) (*bool, error) {
	ts, err := s.src.SwitchTimeGet(ch)
	if err == nil && !now.Before(ts) && now.Sub(ts) > 4*s.cfg.Period {
		err = hwerr.ERStale
	}
	if err != nil {
		return s.applyMissing(err)
	}
	v, err := s.src.SwitchGet(ch)
	if err != nil {
		return s.applyMissing(err)
	}
	return &v, nil
}

func (s *Switch) applyMissing(cause error) (*bool, error) {
	switch s.cfg.Missing {
	case MissingIgnore:
		return nil, nil
	case MissingIgnoreDefault:
		v := s.cfg.DefaultValue
		return &v, nil
	default:
		return nil, cause
	}
}

// markErrored preserves the last known-good state while flagging the
// cache as stale; the timestamp is left untouched, same as Temperature.
func (s *Switch) markErrored(now time.Time) {
	prev := s.snap.Load()
	state, at := false, time.Time{}
	if prev != nil {
		state, at = prev.state, prev.at
	}
	s.snap.Store(&switchSnapshot{state: state, errored: true, at: at})
}
