//go:build !linux

package main

import "rwchcd-core/backends/hwp1"

func hwp1DefaultI2C() hwp1.I2C            { return hwp1.DefaultI2CBus() }
func hwp1DefaultPins() hwp1.PinFactory    { return hwp1.DefaultPinFactory() }
