// Package hwp1 is the reference locally-attached backend: temperature
// channels read over I2C, switch channels and relay channels driven
// through GPIO pins. Grounded on the halcore bus
// abstractions (I2CBusFactory/PinFactory/GPIOPin in
// services/hal/internal/halcore/types.go) and drvshim/i2cshim.go's
// thin adaptor-to-tinygo.org/x/drivers.I2C shape; factories_host.go/
// factories_linux.go split the portable wiring from the Linux-only
// device access the way services/hal/internal/platform does.
package hwp1

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/drivers"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
	"rwchcd-core/x/mathx"
)

// sensorRangeLo and sensorRangeHi bound decoded I2C temperature counts
// against implausible readings (a noisy or miswired register) before
// they ever reach the meta-input layer.
const (
	sensorRangeLo = -55.0
	sensorRangeHi = 150.0
)

// I2C is tinygo.org/x/drivers.I2C, named locally so this package's
// exported surface doesn't force every caller to import drivers
// directly; OpenLinuxI2CBus (Linux) and the host stub both satisfy it
// as-is.
type I2C = drivers.I2C

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin mirrors halcore.GPIOPin so the same Linux pin
// implementation can back both switch inputs and relay outputs.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies GPIO pins by board pin number.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// I2CChannel reads one temperature sensor over I2C: a register read
// at Addr/Reg is decoded into degrees Celsius via Scale/Offset
// (value = raw*Scale + Offset), the simplest linear sensor model and
// sufficient for the resistive/analog-front-end sensors this backend
// targets.
type I2CChannel struct {
	Addr   uint16
	Reg    byte
	Scale  float64
	Offset float64
}

type GPIOChannel struct {
	Pin int
}

// Config wires one hwp1 instance: its I2C temperature channels and
// GPIO switch/relay channels, in configuration order (channel index
// == position in these slices, the plain
// integer-indexed channel addressing).
type Config struct {
	Temperatures []I2CChannel
	Switches     []GPIOChannel
	Relays       []GPIOChannel
}

type tempState struct {
	value iotypes.Temperature
	at    time.Time
}

type switchState struct {
	value bool
	at    time.Time
}

// Backend implements backend.Capability against Config's channel
// table.
type Backend struct {
	cfg  Config
	i2c  I2C
	pins PinFactory
	log  *zap.Logger

	name string

	switchPins []GPIOPin
	relayPins  []GPIOPin

	mu      sync.RWMutex
	temps   []tempState
	switches []switchState
	relays  []bool
}

type Option func(*Backend)

func WithLogger(log *zap.Logger) Option { return func(b *Backend) { b.log = log } }

func NewBackend(cfg Config, i2c I2C, pins PinFactory, opts ...Option) *Backend {
	b := &Backend{cfg: cfg, i2c: i2c, pins: pins, log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) Setup(name string) error {
	b.name = name
	b.temps = make([]tempState, len(b.cfg.Temperatures))
	b.switches = make([]switchState, len(b.cfg.Switches))
	b.relays = make([]bool, len(b.cfg.Relays))

	b.switchPins = make([]GPIOPin, len(b.cfg.Switches))
	for i, ch := range b.cfg.Switches {
		pin, ok := b.pins.ByNumber(ch.Pin)
		if !ok {
			return hwerr.Wrap("hwp1.Setup", hwerr.ENotFound, nil)
		}
		if err := pin.ConfigureInput(PullUp); err != nil {
			return hwerr.Wrap("hwp1.Setup", hwerr.EGeneric, err)
		}
		b.switchPins[i] = pin
	}

	b.relayPins = make([]GPIOPin, len(b.cfg.Relays))
	for i, ch := range b.cfg.Relays {
		pin, ok := b.pins.ByNumber(ch.Pin)
		if !ok {
			return hwerr.Wrap("hwp1.Setup", hwerr.ENotFound, nil)
		}
		if err := pin.ConfigureOutput(false); err != nil {
			return hwerr.Wrap("hwp1.Setup", hwerr.EGeneric, err)
		}
		b.relayPins[i] = pin
	}
	return nil
}

func (b *Backend) Online() error { return nil }

// Input samples every I2C temperature channel and GPIO switch channel
// once. A per-channel I2C failure is recorded as an open-circuit
// reading on that channel rather than aborting the whole phase, so one
// bad sensor doesn't blind the rest of the bus.
func (b *Backend) Input() error {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ch := range b.cfg.Temperatures {
		var raw [2]byte
		if err := b.i2c.Tx(ch.Addr, []byte{ch.Reg}, raw[:]); err != nil {
			b.log.Warn("hwp1 i2c read failed", zap.String("backend", b.name), zap.Int("chan", i), zap.Error(err))
			b.temps[i] = tempState{value: iotypes.TempOpenCirc(), at: now}
			continue
		}
		counts := float64(int(raw[0])<<8 | int(raw[1]))
		celsius := mathx.Clamp(counts*ch.Scale+ch.Offset, sensorRangeLo, sensorRangeHi)
		b.temps[i] = tempState{value: iotypes.TempValue(celsius), at: now}
	}

	for i, pin := range b.switchPins {
		b.switches[i] = switchState{value: pin.Get(), at: now}
	}
	return nil
}

// Output writes every relay channel's last-requested state to its pin.
func (b *Backend) Output() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i, pin := range b.relayPins {
		pin.Set(b.relays[i])
	}
	return nil
}

func (b *Backend) Offline() error { return nil }
func (b *Backend) Exit()          {}

func (b *Backend) TemperatureGet(ch iotypes.BinID) (iotypes.Temperature, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.temps) {
		return iotypes.Temperature{}, hwerr.EInvalid
	}
	return b.temps[idx].value, nil
}

func (b *Backend) TemperatureTimeGet(ch iotypes.BinID) (time.Time, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.temps) {
		return time.Time{}, hwerr.EInvalid
	}
	return b.temps[idx].at, nil
}

func (b *Backend) SwitchGet(ch iotypes.BinID) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.switches) {
		return false, hwerr.EInvalid
	}
	return b.switches[idx].value, nil
}

func (b *Backend) SwitchTimeGet(ch iotypes.BinID) (time.Time, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.switches) {
		return time.Time{}, hwerr.EInvalid
	}
	return b.switches[idx].at, nil
}

func (b *Backend) RelayStateGet(ch iotypes.BoutID) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.relays) {
		return false, hwerr.EInvalid
	}
	return b.relays[idx], nil
}

func (b *Backend) RelayStateSet(ch iotypes.BoutID, state bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.relays) {
		return hwerr.EInvalid
	}
	b.relays[idx] = state
	return nil
}
