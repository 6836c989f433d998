package iofacade

import (
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
	"rwchcd-core/meta"
)

// RelayOutputs is the named table of relay meta-outputs.
type RelayOutputs struct {
	items  []*meta.Relay
	names  []string
	byName map[string]iotypes.OrID
}

func NewRelayOutputs() *RelayOutputs {
	return &RelayOutputs{byName: map[string]iotypes.OrID{}}
}

func (ro *RelayOutputs) Add(name string, r *meta.Relay) iotypes.OrID {
	ro.items = append(ro.items, r)
	ro.names = append(ro.names, name)
	id := iotypes.ExternalOrID(len(ro.items) - 1)
	ro.byName[name] = id
	return id
}

func (ro *RelayOutputs) ByName(name string) (iotypes.OrID, bool) {
	id, ok := ro.byName[name]
	return id, ok
}

func (ro *RelayOutputs) Name(id iotypes.OrID) (string, bool) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(ro.names) {
		return "", false
	}
	return ro.names[idx], true
}

func (ro *RelayOutputs) Len() int { return len(ro.items) }

func (ro *RelayOutputs) at(id iotypes.OrID) (*meta.Relay, error) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(ro.items) {
		return nil, hwerr.EInvalid
	}
	return ro.items[idx], nil
}

func (ro *RelayOutputs) Grab(id iotypes.OrID) error {
	r, err := ro.at(id)
	if err != nil {
		return err
	}
	return r.Grab()
}

func (ro *RelayOutputs) Thaw(id iotypes.OrID) error {
	r, err := ro.at(id)
	if err != nil {
		return err
	}
	r.Thaw()
	return nil
}

func (ro *RelayOutputs) Get(id iotypes.OrID) (bool, error) {
	r, err := ro.at(id)
	if err != nil {
		return false, err
	}
	return r.StateGet(), nil
}

func (ro *RelayOutputs) Set(id iotypes.OrID, state bool) error {
	r, err := ro.at(id)
	if err != nil {
		return err
	}
	return r.StateSet(state)
}

// Accounting exposes the raw run-time counters behind one relay
// handle: cumulative on/off time and cycle count.
type Accounting struct {
	OnTotal, OffTotal time.Duration
	Cycles            uint64
	CreatedAt         time.Time
}

func (ro *RelayOutputs) Accounting(id iotypes.OrID) (Accounting, error) {
	r, err := ro.at(id)
	if err != nil {
		return Accounting{}, err
	}
	return Accounting{
		OnTotal:   r.OnTotal(),
		OffTotal:  r.OffTotal(),
		Cycles:    r.Cycles(),
		CreatedAt: r.CreatedAt(),
	}, nil
}
