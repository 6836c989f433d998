package meta

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rwchcd-core/hwerr"
	"rwchcd-core/internal/xsync"
	"rwchcd-core/iotypes"
)

type relayWriter interface {
	RelayStateSet(ch iotypes.ChanOut, state bool) error
}

// RelayConfig wires one meta-output: its ordered target list, the
// fan-out operation, and the missing-target policy.
type RelayConfig struct {
	Name    string
	Targets []iotypes.ChanOut
	Op      RelayOperation
	Missing MissingPolicy // only MissingFail / MissingIgnore are meaningful here
}

// Relay is a logical relay output fanned out to 1..N backend channels
// meta-output. It enforces single-owner exclusion via
// Grab/Thaw, coalesces repeated StateSet calls to a no-op when the
// requested state hasn't changed, and keeps on/off-time and cycle
// accounting guarded by a short spin lock.
type Relay struct {
	cfg   RelayConfig
	write relayWriter
	log   *zap.Logger
	clock Clock

	configured bool
	createdAt  time.Time
	grabbed    xsync.TryOnce

	lock       xsync.SpinLock
	turnOn     atomic.Bool
	stateSince time.Time
	onTotal    time.Duration
	offTotal   time.Duration
	cycles     uint64
}

type RelayOption func(*Relay)

func WithRelayClock(c Clock) RelayOption      { return func(r *Relay) { r.clock = c } }
func WithRelayLogger(log *zap.Logger) RelayOption { return func(r *Relay) { r.log = log } }

func NewRelay(cfg RelayConfig, write relayWriter, opts ...RelayOption) *Relay {
	r := &Relay{
		cfg:        cfg,
		write:      write,
		log:        zap.NewNop(),
		clock:      defaultClock(),
		configured: len(cfg.Targets) > 0,
	}
	for _, o := range opts {
		o(r)
	}
	r.createdAt = r.clock()
	r.stateSince = r.createdAt
	return r
}

// Grab claims exclusive ownership of this relay for a plant module.
// Only one owner may hold it at a time; a second Grab fails with
// EEXISTS until the first Thaw.
func (r *Relay) Grab() error {
	if r.grabbed.TryAcquire() {
		return nil
	}
	return hwerr.EExists
}

// Thaw releases ownership previously claimed by Grab.
func (r *Relay) Thaw() { r.grabbed.Release() }

// StateGet returns the last-requested state, lock-free, without
// consulting the backend.
func (r *Relay) StateGet() bool { return r.turnOn.Load() }

// StateSet fans the requested state out to every target per the
// configured operation and missing-target policy. Calls that don't
// change the requested state are coalesced to a no-op; only the last
// distinct value a caller asks for within a tick is ever enacted.
func (r *Relay) StateSet(on bool) error {
	if !r.configured {
		return hwerr.ENotConfigured
	}
	if r.turnOn.Load() == on {
		return nil
	}

	var (
		failErr error
		wrote   bool
	)
	for _, tgt := range r.cfg.Targets {
		if err := r.write.RelayStateSet(tgt, on); err != nil {
			if r.cfg.Missing == MissingFail {
				failErr = err
				break
			}
			continue
		}
		wrote = true
		if r.cfg.Op == RelayFirst {
			break
		}
	}
	if failErr != nil {
		r.log.Warn("relay state set failed", zap.String("relay", r.cfg.Name), zap.Error(failErr))
		return failErr
	}
	if !wrote {
		return hwerr.EGeneric
	}

	r.lock.Acquire()
	defer r.lock.Release()
	now := r.clock()
	delta := now.Sub(r.stateSince)
	wasOn := r.turnOn.Load()
	if wasOn {
		r.onTotal += delta
	} else {
		r.offTotal += delta
	}
	if on && !wasOn {
		r.cycles++
	}
	r.turnOn.Store(on)
	r.stateSince = now
	return nil
}

// OnTotal and OffTotal fold in the currently open interval so the sum
// of the two plus nothing else always equals now - CreatedAt.
func (r *Relay) OnTotal() time.Duration  { return r.accountedTotal(true) }
func (r *Relay) OffTotal() time.Duration { return r.accountedTotal(false) }

func (r *Relay) accountedTotal(on bool) time.Duration {
	r.lock.Acquire()
	defer r.lock.Release()
	total := r.offTotal
	if on {
		total = r.onTotal
	}
	if r.turnOn.Load() == on {
		total += r.clock().Sub(r.stateSince)
	}
	return total
}

func (r *Relay) Cycles() uint64 {
	r.lock.Acquire()
	defer r.lock.Release()
	return r.cycles
}

func (r *Relay) CreatedAt() time.Time { return r.createdAt }
