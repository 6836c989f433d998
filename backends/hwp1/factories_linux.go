//go:build linux

package hwp1

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const i2cSlaveIoctl = 0x0703 // I2C_SLAVE, from linux/i2c-dev.h

// LinuxI2CBus opens a single /dev/i2c-N device and serialises every
// Tx through it, matching drvshim.I2C's single-owner
// shape but talking to the real kernel i2c-dev interface instead of a
// core.I2COwner.
type LinuxI2CBus struct {
	f *os.File
}

func OpenLinuxI2CBus(devicePath string) (*LinuxI2CBus, error) {
	f, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &LinuxI2CBus{f: f}, nil
}

func (b *LinuxI2CBus) Tx(addr uint16, w, r []byte) error {
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlaveIoctl, int(addr)); err != nil {
		return err
	}
	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if _, err := b.f.Read(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *LinuxI2CBus) Close() error { return b.f.Close() }

// sysfsGPIOPin drives one pin through the kernel's /sys/class/gpio
// sysfs interface: export once at configure time, then read/write
// the per-pin value file. This predates the character-device gpiod
// API but needs no cgo and matches what the platform layer
// would fall back to off the RP2040/RP2350 builds.
type sysfsGPIOPin struct {
	number int
	dir    string // value file directory, e.g. /sys/class/gpio/gpio17
}

func newSysfsGPIOPin(number int) (*sysfsGPIOPin, error) {
	dir := "/sys/class/gpio/gpio" + strconv.Itoa(number)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		exportFile, ferr := os.OpenFile("/sys/class/gpio/export", os.O_WRONLY, 0)
		if ferr != nil {
			return nil, ferr
		}
		defer exportFile.Close()
		if _, werr := exportFile.WriteString(strconv.Itoa(number)); werr != nil {
			return nil, werr
		}
	}
	return &sysfsGPIOPin{number: number, dir: dir}, nil
}

func (p *sysfsGPIOPin) ConfigureInput(pull Pull) error {
	return os.WriteFile(p.dir+"/direction", []byte("in"), 0o644)
}

func (p *sysfsGPIOPin) ConfigureOutput(initial bool) error {
	if err := os.WriteFile(p.dir+"/direction", []byte("out"), 0o644); err != nil {
		return err
	}
	p.Set(initial)
	return nil
}

func (p *sysfsGPIOPin) Set(level bool) {
	v := "0"
	if level {
		v = "1"
	}
	_ = os.WriteFile(p.dir+"/value", []byte(v), 0o644)
}

func (p *sysfsGPIOPin) Get() bool {
	b, err := os.ReadFile(p.dir + "/value")
	if err != nil || len(b) == 0 {
		return false
	}
	return b[0] == '1'
}

func (p *sysfsGPIOPin) Number() int { return p.number }

// LinuxPinFactory hands out sysfsGPIOPin instances lazily by pin
// number, caching them across calls.
type LinuxPinFactory struct {
	pins map[int]*sysfsGPIOPin
}

func NewLinuxPinFactory() *LinuxPinFactory {
	return &LinuxPinFactory{pins: map[int]*sysfsGPIOPin{}}
}

func (f *LinuxPinFactory) ByNumber(n int) (GPIOPin, bool) {
	if p, ok := f.pins[n]; ok {
		return p, true
	}
	p, err := newSysfsGPIOPin(n)
	if err != nil {
		return nil, false
	}
	f.pins[n] = p
	return p, true
}
