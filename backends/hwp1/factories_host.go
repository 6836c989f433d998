//go:build !linux

package hwp1

// On non-Linux builds there is no sysfs/i2c-dev to talk to. Mirrors
// services/hal/internal/platform's DefaultI2CFactory/DefaultPinFactory
// "not configured, tests inject fakes" stance for non-target builds.

type noI2CBus struct{}

func (noI2CBus) Tx(addr uint16, w, r []byte) error { return errNotImplemented }

type noPinFactory struct{}

func (noPinFactory) ByNumber(int) (GPIOPin, bool) { return nil, false }

func DefaultI2CBus() I2C             { return noI2CBus{} }
func DefaultPinFactory() PinFactory  { return noPinFactory{} }

var errNotImplemented = notImplementedErr{}

type notImplementedErr struct{}

func (notImplementedErr) Error() string { return "hwp1: not implemented on this platform" }
