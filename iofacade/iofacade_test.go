package iofacade

import (
	"testing"
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
	"rwchcd-core/meta"
)

type fakeTempSrc struct{}

func (fakeTempSrc) TemperatureGet(ch iotypes.ChanIn) (iotypes.Temperature, error) {
	return iotypes.TempValue(21), nil
}
func (fakeTempSrc) TemperatureTimeGet(ch iotypes.ChanIn) (time.Time, error) {
	return time.Now(), nil
}

func TestTemperatureInputsHandlesAreOneBased(t *testing.T) {
	ti := NewTemperatureInputs()
	src := fakeTempSrc{}
	cfg := meta.TemperatureConfig{Sources: []iotypes.ChanIn{{Backend: 0, Chan: 0}}, Period: time.Second}
	id := ti.Add("flow", meta.NewTemperature(cfg, src))

	if int(id) != 1 {
		t.Fatalf("first handle = %d, want 1", id)
	}
	if name, ok := ti.Name(id); !ok || name != "flow" {
		t.Fatalf("Name(%d) = (%q, %v), want (flow, true)", id, name, ok)
	}
	if got, ok := ti.ByName("flow"); !ok || got != id {
		t.Fatalf("ByName(flow) = (%d, %v), want (%d, true)", got, ok, id)
	}
	if _, err := ti.Get(iotypes.InvalidItID); err != hwerr.EInvalid {
		t.Fatalf("Get(0) = %v, want EInvalid (reserved handle)", err)
	}
	if v, err := ti.Get(id); err != nil || v.Value != 21 {
		t.Fatalf("Get(%d) = (%v, %v), want (21, nil)", id, v, err)
	}
}

type fakeRelayWrite struct{}

func (fakeRelayWrite) RelayStateSet(ch iotypes.ChanOut, state bool) error { return nil }

func TestRelayOutputsAccountingPassthrough(t *testing.T) {
	ro := NewRelayOutputs()
	r := meta.NewRelay(meta.RelayConfig{Targets: []iotypes.ChanOut{{Backend: 0, Chan: 0}}}, fakeRelayWrite{})
	id := ro.Add("pump", r)

	if err := ro.Set(id, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	acc, err := ro.Accounting(id)
	if err != nil {
		t.Fatalf("Accounting: %v", err)
	}
	if acc.Cycles != 1 {
		t.Fatalf("Cycles = %d, want 1", acc.Cycles)
	}
}
