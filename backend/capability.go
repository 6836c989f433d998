// Package backend defines the contract every hardware backend
// implements (Capability) and the Registry that owns backend
// instances and drives them in lock-step through the setup / online /
// input / output / offline / exit lifecycle.
//
// Dynamic dispatch is a Go interface rather than a function-pointer
// vtable over an opaque priv pointer: optional phases are optional
// sub-interfaces, resolved once at Register time rather than checked
// for nilness on every call.
package backend

import (
	"time"

	"rwchcd-core/iotypes"
)

// Capability is the contract every backend must satisfy. Exit is the
// only phase callback that is not optional: a backend that cannot
// release its resources on shutdown is not a valid backend. The
// getter/setter methods are likewise always present, but a backend
// that does not support a channel kind simply answers
// hwerr.ENotImplemented for it rather than requiring callers to branch on
// a "missing support" case.
type Capability interface {
	// Exit releases private resources. Called unconditionally during
	// Registry.Exit, regardless of the backend's current run state.
	Exit()

	TemperatureGet(ch iotypes.BinID) (iotypes.Temperature, error)
	TemperatureTimeGet(ch iotypes.BinID) (time.Time, error)

	SwitchGet(ch iotypes.BinID) (state bool, err error)
	SwitchTimeGet(ch iotypes.BinID) (time.Time, error)

	// RelayStateGet is a deprecated diagnostics-only getter: the
	// meta-output aggregator never calls it as part of its own read
	// path (it answers relay state from its own cache instead); this
	// exists purely for inspection tools.
	RelayStateGet(ch iotypes.BoutID) (state bool, err error)
	// RelayStateSet stages a relay output. Between consecutive Output
	// calls it may be invoked any number of times for the same
	// channel; only the most recently staged value is enacted when
	// Output runs.
	RelayStateSet(ch iotypes.BoutID, state bool) error
}

// Setuper parses/finalizes a backend's configuration. Optional.
type Setuper interface {
	Setup(name string) error
}

// Onliner brings backend hardware live. Optional. After it returns
// success, sensor-time queries must succeed for every configured
// channel even before the first Input call.
type Onliner interface {
	Online() error
}

// Inputer samples all inputs into the backend's own cache. Optional.
type Inputer interface {
	Input() error
}

// Outputer flushes staged outputs to hardware. Optional.
type Outputer interface {
	Output() error
}

// Offliner quiesces hardware. Optional.
type Offliner interface {
	Offline() error
}
