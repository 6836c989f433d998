package hwp1

import (
	"testing"

	"rwchcd-core/iotypes"
)

type fakeI2C struct {
	reply map[uint16][]byte
	fail  map[uint16]bool
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.fail[addr] {
		return errTest
	}
	copy(r, f.reply[addr])
	return nil
}

type errTestType struct{}

func (errTestType) Error() string { return "fake i2c failure" }

var errTest = errTestType{}

type fakePin struct {
	level bool
	in    bool
}

func (p *fakePin) ConfigureInput(pull Pull) error  { p.in = true; return nil }
func (p *fakePin) ConfigureOutput(initial bool) error { p.in = false; p.level = initial; return nil }
func (p *fakePin) Set(level bool)                  { p.level = level }
func (p *fakePin) Get() bool                       { return p.level }
func (p *fakePin) Number() int                     { return 0 }

type fakePinFactory struct {
	pins map[int]*fakePin
}

func newFakePinFactory() *fakePinFactory { return &fakePinFactory{pins: map[int]*fakePin{}} }

func (f *fakePinFactory) ByNumber(n int) (GPIOPin, bool) {
	p, ok := f.pins[n]
	if !ok {
		p = &fakePin{}
		f.pins[n] = p
	}
	return p, true
}

func TestBackendInputReadsTemperatureAndSwitch(t *testing.T) {
	i2c := &fakeI2C{reply: map[uint16][]byte{0x48: {0x01, 0x90}}, fail: map[uint16]bool{}}
	pins := newFakePinFactory()
	pins.pins[5] = &fakePin{level: true}

	cfg := Config{
		Temperatures: []I2CChannel{{Addr: 0x48, Reg: 0x00, Scale: 0.0625, Offset: 0}},
		Switches:     []GPIOChannel{{Pin: 5}},
	}
	b := NewBackend(cfg, i2c, pins)
	if err := b.Setup("hwp1-test"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := b.Input(); err != nil {
		t.Fatalf("Input: %v", err)
	}

	v, err := b.TemperatureGet(0)
	if err != nil || !v.IsOk() {
		t.Fatalf("TemperatureGet = (%v, %v)", v, err)
	}
	wantCounts := float64(0x0190)
	wantC := wantCounts * 0.0625
	if v.Value != wantC {
		t.Fatalf("TemperatureGet value = %v, want %v", v.Value, wantC)
	}

	sv, err := b.SwitchGet(0)
	if err != nil || !sv {
		t.Fatalf("SwitchGet = (%v, %v), want (true, nil)", sv, err)
	}
}

func TestBackendInputI2CFailureYieldsOpenCircuit(t *testing.T) {
	i2c := &fakeI2C{reply: map[uint16][]byte{}, fail: map[uint16]bool{0x49: true}}
	pins := newFakePinFactory()
	cfg := Config{Temperatures: []I2CChannel{{Addr: 0x49}}}
	b := NewBackend(cfg, i2c, pins)
	_ = b.Setup("hwp1-test")
	_ = b.Input()

	v, _ := b.TemperatureGet(0)
	if v.State != iotypes.TempDisconnected {
		t.Fatalf("TemperatureGet state = %v, want TempDisconnected", v.State)
	}
}

func TestBackendOutputWritesRelayPins(t *testing.T) {
	pins := newFakePinFactory()
	cfg := Config{Relays: []GPIOChannel{{Pin: 10}}}
	b := NewBackend(cfg, &fakeI2C{}, pins)
	if err := b.Setup("hwp1-test"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := b.RelayStateSet(0, true); err != nil {
		t.Fatalf("RelayStateSet: %v", err)
	}
	if err := b.Output(); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !pins.pins[10].Get() {
		t.Fatal("relay pin was not set high")
	}
}
