// Package iofacade is the plant-facing façade over the meta package:
// named tables of meta-inputs/-outputs addressed by 1-based external
// handles (ItID/OrID) instead of raw pointers or array indices. Tables
// are append-only at config time, exactly like backend.Registry, and
// read-only once the plant loop starts.
package iofacade

import (
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
	"rwchcd-core/logsink"
	"rwchcd-core/meta"
)

// TemperatureInputs is the named table of temperature meta-inputs.
type TemperatureInputs struct {
	items []*meta.Temperature
	names []string
	byName map[string]iotypes.ItID
}

func NewTemperatureInputs() *TemperatureInputs {
	return &TemperatureInputs{byName: map[string]iotypes.ItID{}}
}

// Add registers a configured temperature input under name, returning
// its external handle.
func (ti *TemperatureInputs) Add(name string, t *meta.Temperature) iotypes.ItID {
	ti.items = append(ti.items, t)
	ti.names = append(ti.names, name)
	id := iotypes.ExternalItID(len(ti.items) - 1)
	ti.byName[name] = id
	return id
}

func (ti *TemperatureInputs) ByName(name string) (iotypes.ItID, bool) {
	id, ok := ti.byName[name]
	return id, ok
}

func (ti *TemperatureInputs) Name(id iotypes.ItID) (string, bool) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(ti.names) {
		return "", false
	}
	return ti.names[idx], true
}

func (ti *TemperatureInputs) Len() int { return len(ti.items) }

func (ti *TemperatureInputs) at(id iotypes.ItID) (*meta.Temperature, error) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(ti.items) {
		return nil, hwerr.EInvalid
	}
	return ti.items[idx], nil
}

func (ti *TemperatureInputs) Get(id iotypes.ItID) (iotypes.Temperature, error) {
	t, err := ti.at(id)
	if err != nil {
		return iotypes.Temperature{}, err
	}
	return t.Get()
}

func (ti *TemperatureInputs) Time(id iotypes.ItID) (time.Time, error) {
	t, err := ti.at(id)
	if err != nil {
		return time.Time{}, err
	}
	return t.Time()
}

// LogSource builds a logsink.Source sampling every registered
// temperature input's current value, one FGAUGE metric per input,
// named after the name it was registered under.
func (ti *TemperatureInputs) LogSource(basename string, cadence time.Duration) logsink.Source {
	metrics := make([]logsink.Metric, len(ti.items))
	for i, t := range ti.items {
		t := t
		metrics[i] = logsink.Metric{
			Name: ti.names[i],
			Kind: logsink.FGauge,
			Read: func() (float64, bool) {
				v, err := t.Get()
				if err != nil || !v.IsOk() {
					return 0, false
				}
				return v.Value, true
			},
		}
	}
	return logsink.Source{Basename: basename, Identifier: "temperatures", Cadence: cadence, Metrics: metrics}
}

// SwitchInputs is the named table of boolean meta-inputs.
type SwitchInputs struct {
	items  []*meta.Switch
	names  []string
	byName map[string]iotypes.ItID
}

func NewSwitchInputs() *SwitchInputs {
	return &SwitchInputs{byName: map[string]iotypes.ItID{}}
}

func (si *SwitchInputs) Add(name string, s *meta.Switch) iotypes.ItID {
	si.items = append(si.items, s)
	si.names = append(si.names, name)
	id := iotypes.ExternalItID(len(si.items) - 1)
	si.byName[name] = id
	return id
}

func (si *SwitchInputs) ByName(name string) (iotypes.ItID, bool) {
	id, ok := si.byName[name]
	return id, ok
}

func (si *SwitchInputs) Name(id iotypes.ItID) (string, bool) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(si.names) {
		return "", false
	}
	return si.names[idx], true
}

func (si *SwitchInputs) Len() int { return len(si.items) }

func (si *SwitchInputs) at(id iotypes.ItID) (*meta.Switch, error) {
	idx, ok := id.InternalIndex()
	if !ok || idx < 0 || idx >= len(si.items) {
		return nil, hwerr.EInvalid
	}
	return si.items[idx], nil
}

func (si *SwitchInputs) Get(id iotypes.ItID) (bool, error) {
	s, err := si.at(id)
	if err != nil {
		return false, err
	}
	return s.Get()
}

// LogSource builds a logsink.Source sampling every registered switch
// input, encoded as 0/1 FGAUGE values since logsink only ships gauges.
func (si *SwitchInputs) LogSource(basename string, cadence time.Duration) logsink.Source {
	metrics := make([]logsink.Metric, len(si.items))
	for i, s := range si.items {
		s := s
		metrics[i] = logsink.Metric{
			Name: si.names[i],
			Kind: logsink.FGauge,
			Read: func() (float64, bool) {
				v, err := s.Get()
				if err != nil {
					return 0, false
				}
				if v {
					return 1, true
				}
				return 0, true
			},
		}
	}
	return logsink.Source{Basename: basename, Identifier: "switch", Cadence: cadence, Metrics: metrics}
}
