package backend

import (
	"time"

	"go.uber.org/zap"

	"rwchcd-core/alarms"
	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

// entry is one registered backend plus its cached optional-interface
// presence and run flags. The presence checks happen exactly once, at
// Register time, rather than on every phase call.
type entry struct {
	name string
	cap  Capability

	setuper  Setuper
	onliner  Onliner
	inputer  Inputer
	outputer Outputer
	offliner Offliner

	initialized bool
	online      bool
}

// Registry owns the backend table and drives every backend through
// the setup / online / input / output / offline / exit lifecycle in
// registration order. It is built up during config (Register is not
// safe to call concurrently with the phase methods): append-only
// during config, treated as read-only once Online() returns. No
// further synchronization guards the entries slice because one phase
// call runs to completion, in order, before the next is invoked.
type Registry struct {
	entries []*entry
	names   map[string]int

	log    *zap.Logger
	alarms alarms.Sink
}

// Option configures a Registry at construction.
type Option func(*Registry)

func WithLogger(log *zap.Logger) Option { return func(r *Registry) { r.log = log } }
func WithAlarms(sink alarms.Sink) Option {
	return func(r *Registry) { r.alarms = sink }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{names: map[string]int{}, log: zap.NewNop(), alarms: alarms.Nop{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register appends a backend under a unique name. The mandatory Exit
// callback is enforced by the Capability interface at compile time,
// so the only runtime collision to check here is the name.
func (r *Registry) Register(name string, cap Capability) error {
	if _, exists := r.names[name]; exists {
		return hwerr.Wrap("register", hwerr.EExists, nil)
	}
	e := &entry{name: name, cap: cap}
	e.setuper, _ = cap.(Setuper)
	e.onliner, _ = cap.(Onliner)
	e.inputer, _ = cap.(Inputer)
	e.outputer, _ = cap.(Outputer)
	e.offliner, _ = cap.(Offliner)

	r.names[name] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Len reports the number of registered backends.
func (r *Registry) Len() int { return len(r.entries) }

// IDOf resolves a backend's configured name to the BackendID config
// wiring (ChanIn/ChanOut) addresses it by.
func (r *Registry) IDOf(name string) (iotypes.BackendID, bool) {
	idx, ok := r.names[name]
	if !ok {
		return 0, false
	}
	return iotypes.BackendID(idx), true
}

// Setup applies Setup to every backend that isn't yet initialized, in
// registration order.
func (r *Registry) Setup() error {
	return r.forEachConfigured(func(e *entry) error {
		if e.initialized {
			return nil
		}
		if e.setuper != nil {
			if err := e.setuper.Setup(e.name); err != nil {
				r.log.Warn("backend setup failed", zap.String("backend", e.name), zap.Error(err))
				return err
			}
		}
		e.initialized = true
		return nil
	})
}

// Online brings every initialized-but-offline backend live.
func (r *Registry) Online() error {
	return r.forEachConfigured(func(e *entry) error {
		if !e.initialized || e.online {
			return nil
		}
		if e.onliner != nil {
			if err := e.onliner.Online(); err != nil {
				r.log.Warn("backend online failed", zap.String("backend", e.name), zap.Error(err))
				return err
			}
		}
		e.online = true
		return nil
	})
}

// Input samples every online backend. Per-backend failures raise an
// alarm and are logged but do not abort the phase.
func (r *Registry) Input() error {
	return r.forEachConfigured(func(e *entry) error {
		if !e.online || e.inputer == nil {
			return nil
		}
		if err := e.inputer.Input(); err != nil {
			r.log.Warn("backend input failed", zap.String("backend", e.name), zap.Error(err))
			r.alarms.Raise(hwerr.Of(err), "input failed on backend "+e.name)
			return err
		}
		return nil
	})
}

// Output flushes every online backend's staged outputs.
func (r *Registry) Output() error {
	return r.forEachConfigured(func(e *entry) error {
		if !e.online || e.outputer == nil {
			return nil
		}
		if err := e.outputer.Output(); err != nil {
			r.log.Warn("backend output failed", zap.String("backend", e.name), zap.Error(err))
			r.alarms.Raise(hwerr.Of(err), "output failed on backend "+e.name)
			return err
		}
		return nil
	})
}

// Offline quiesces every online backend.
func (r *Registry) Offline() error {
	return r.forEachConfigured(func(e *entry) error {
		if !e.online {
			return nil
		}
		var err error
		if e.offliner != nil {
			err = e.offliner.Offline()
			if err != nil {
				r.log.Warn("backend offline failed", zap.String("backend", e.name), zap.Error(err))
			}
		}
		e.online = false
		return err
	})
}

// Exit releases every backend's resources unconditionally, regardless
// of current run state. It cannot fail: Exit is best-effort cleanup.
func (r *Registry) Exit() {
	for _, e := range r.entries {
		e.cap.Exit()
	}
}

// forEachConfigured runs fn over every entry in registration order,
// returning ENotConfigured if the table is empty and EGeneric if any
// entry's fn returned a non-nil error.
func (r *Registry) forEachConfigured(fn func(*entry) error) error {
	if len(r.entries) == 0 {
		return hwerr.ENotConfigured
	}
	failed := false
	for _, e := range r.entries {
		if err := fn(e); err != nil {
			failed = true
		}
	}
	if failed {
		return hwerr.EGeneric
	}
	return nil
}

// --- getter/setter dispatch ---

func (r *Registry) backendAt(id iotypes.BackendID) (*entry, error) {
	if int(id) < 0 || int(id) >= len(r.entries) {
		return nil, hwerr.EInvalid
	}
	e := r.entries[id]
	if !e.online {
		return nil, hwerr.EOffline
	}
	return e, nil
}

func (r *Registry) TemperatureGet(ch iotypes.ChanIn) (iotypes.Temperature, error) {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return iotypes.Temperature{}, err
	}
	return e.cap.TemperatureGet(ch.Chan)
}

func (r *Registry) TemperatureTimeGet(ch iotypes.ChanIn) (time.Time, error) {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return time.Time{}, err
	}
	return e.cap.TemperatureTimeGet(ch.Chan)
}

func (r *Registry) SwitchGet(ch iotypes.ChanIn) (bool, error) {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return false, err
	}
	return e.cap.SwitchGet(ch.Chan)
}

func (r *Registry) SwitchTimeGet(ch iotypes.ChanIn) (time.Time, error) {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return time.Time{}, err
	}
	return e.cap.SwitchTimeGet(ch.Chan)
}

// RelayStateGet is the deprecated diagnostics-only path through to
// the backend's own staged value; the Output
// Aggregator's authoritative read path never calls this.
func (r *Registry) RelayStateGet(ch iotypes.ChanOut) (bool, error) {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return false, err
	}
	return e.cap.RelayStateGet(ch.Chan)
}

func (r *Registry) RelayStateSet(ch iotypes.ChanOut, state bool) error {
	e, err := r.backendAt(ch.Backend)
	if err != nil {
		return err
	}
	return e.cap.RelayStateSet(ch.Chan, state)
}
