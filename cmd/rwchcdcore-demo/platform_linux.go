//go:build linux

package main

import (
	"rwchcd-core/backends/hwp1"
	"rwchcd-core/hwerr"
)

const defaultI2CDevice = "/dev/i2c-1"

// hwp1DefaultI2C opens the board's default I2C bus. If it isn't
// present (e.g. running the demo binary off-target), every I2C
// transfer fails with EOFFLINE, which hwp1's Input records as an
// open-circuit reading on each temperature channel, instead of the
// process refusing to start.
func hwp1DefaultI2C() hwp1.I2C {
	b, err := hwp1.OpenLinuxI2CBus(defaultI2CDevice)
	if err != nil {
		return unavailableI2C{}
	}
	return b
}

func hwp1DefaultPins() hwp1.PinFactory { return hwp1.NewLinuxPinFactory() }

type unavailableI2C struct{}

func (unavailableI2C) Tx(addr uint16, w, r []byte) error { return hwerr.EOffline }
