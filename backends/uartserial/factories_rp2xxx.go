//go:build rp2040 || rp2350

package uartserial

import (
	"context"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// rp2UARTPort adapts *uartx.UART, tinygo-uartx's hardware UART type, to
// the narrow UARTPort interface this package consumes. Mirrors
// platform.rp2UART's wrapper shape.
type rp2UARTPort struct{ u *uartx.UART }

func (p *rp2UARTPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2UARTPort) Read(b []byte) (int, error)  { return p.u.Read(b) }
func (p *rp2UARTPort) Readable() <-chan struct{}   { return p.u.Readable() }
func (p *rp2UARTPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, b)
}

// parityOf maps the textual parity names accepted in config to
// tinygo-uartx's SetFormat parity encoding (0 none, 1 even, 2 odd),
// the same mapping platform.rp2UART.SetFormat uses.
func parityOf(name string) uint8 {
	switch name {
	case "even":
		return 1
	case "odd":
		return 2
	default:
		return 0
	}
}

// OpenRP2UART configures and returns one of the RP2040/RP2350's two
// hardware UARTs (selected by id, "uart0" or "uart1") as a UARTPort.
// Configure enables the RX IRQ with tinygo-uartx's defaults; baud rate
// and frame format are then set explicitly, the same two-step sequence
// platform.DefaultUARTFactory and rp2UART.SetFormat use.
func OpenRP2UART(id string, baudRate uint32, dataBits, stopBits uint8, parity string) (UARTPort, error) {
	var hw *uartx.UART
	switch id {
	case "uart1":
		hw = uartx.UART1
	default:
		hw = uartx.UART0
	}
	if err := hw.Configure(uartx.UARTConfig{}); err != nil {
		return nil, err
	}
	hw.SetBaudRate(baudRate)
	if err := hw.SetFormat(dataBits, stopBits, parityOf(parity)); err != nil {
		return nil, err
	}
	return &rp2UARTPort{u: hw}, nil
}
