// Package meta implements the two meta-input aggregators (Temperature,
// Switch) and the meta-output aggregator (Relay): logical inputs/
// outputs assembled from 1..N backend channels with failover and
// aggregation policies, exposing a single thread-safe, cached,
// period-limited value to the plant.
package meta

import "time"

// Operation combines samples from a temperature meta-input's sources.
type Operation int

const (
	OpFirst Operation = iota
	OpMin
	OpMax
)

// SwitchOperation combines samples from a switch meta-input's sources.
type SwitchOperation int

const (
	SwitchFirst SwitchOperation = iota
	SwitchAnd
	SwitchOr
)

// RelayOperation combines writes to a relay meta-output's targets.
type RelayOperation int

const (
	RelayFirst RelayOperation = iota
	RelayAll
)

// MissingPolicy governs how a meta-input tolerates an unreadable
// source. MissingPolicy also doubles for the relay meta-output, which
// only ever uses FAIL and IGNORE (there is no sensible default relay
// command, so IGNORE_DEFAULT doesn't apply there).
type MissingPolicy int

const (
	MissingFail MissingPolicy = iota
	MissingIgnore
	MissingIgnoreDefault
)

// Clock is an injectable source of "now", defaulting to time.Now. The
// meta-input/-output aggregators use it exclusively so staleness and
// accounting scenarios are reproducible in tests without sleeping.
type Clock func() time.Time

func defaultClock() Clock { return time.Now }
