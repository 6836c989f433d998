// Package alarms is a narrow Sink interface the core raises through on
// per-phase backend failures and on meta-input update failures whose
// missing-policy is not IGNORE. The shipped BusSink adapter publishes
// onto the kept bus.Bus so a diagnostics process can subscribe without
// this core depending on it; alarm pretty-printing is out of scope
// here.
package alarms

import (
	"rwchcd-core/bus"
	"rwchcd-core/hwerr"
	"rwchcd-core/x/timex"
)

// Sink is the narrow interface the core raises alarms through.
type Sink interface {
	Raise(code hwerr.Code, message string)
}

// Nop discards every alarm. Useful as a default in tests and in
// components that don't care to wire a real sink.
type Nop struct{}

func (Nop) Raise(hwerr.Code, string) {}

// Topic is the bus topic alarms are published under: alarm/<code>.
func Topic(code hwerr.Code) bus.Topic { return bus.T("alarm", string(code)) }

// Event is the payload published for each raised alarm.
type Event struct {
	Code    hwerr.Code
	Message string
	TsMs    int64
}

// BusSink publishes alarms onto a bus.Connection, non-retained: an
// alarm is a point-in-time event, not a sticky state, so a subscriber
// does not see alarms raised before it subscribed.
type BusSink struct {
	conn *bus.Connection
}

func NewBusSink(conn *bus.Connection) *BusSink {
	return &BusSink{conn: conn}
}

func (s *BusSink) Raise(code hwerr.Code, message string) {
	ev := Event{Code: code, Message: message, TsMs: timex.NowMs()}
	s.conn.Publish(s.conn.NewMessage(Topic(code), ev, false))
}
