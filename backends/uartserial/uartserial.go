// Package uartserial is the UART-attached backend: temperature,
// switch, and relay channels are multiplexed over a single serial
// line with a small textual request/response protocol. Grounded on
// halcore.UARTPort/UARTFactory interfaces and
// services/hal/internal/uartio/uart_worker.go's Readable()-driven
// receive loop, generalized from uart_worker's async line-framing
// worker to a synchronous request/response transaction (one line out,
// one line back, per channel access) since this backend's protocol is
// always strictly request-then-reply rather than an unsolicited
// stream. On an RP2040/RP2350 firmware build, factories_rp2xxx.go's
// OpenRP2UART supplies the concrete UARTPort over
// github.com/jangala-dev/tinygo-uartx; UARTPort here is the narrow
// interface this package actually consumes, so host-side tests can
// fake it directly.
package uartserial

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"rwchcd-core/hwerr"
	"rwchcd-core/internal/util"
	"rwchcd-core/iotypes"
)

// UARTPort is the subset of tinygo-uartx's port type (and
// halcore.UARTPort) this backend needs.
type UARTPort interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Config wires one uartserial instance: the number of temperature,
// switch, and relay channels it exposes, addressed 0..N-1 on the wire
// by their position.
type Config struct {
	TemperatureChannels int
	SwitchChannels      int
	RelayChannels       int
	TransactionTimeout  time.Duration
}

type tempState struct {
	value iotypes.Temperature
	at    time.Time
}

type switchState struct {
	value bool
	at    time.Time
}

// Backend serializes every channel access through a single mutex,
// matching the single-owner-bus assumption a shared UART line forces:
// only one transaction can be in flight at a time.
type Backend struct {
	cfg  Config
	port UARTPort
	log  *zap.Logger
	name string

	mu      sync.Mutex
	temps   []tempState
	switches []switchState
	relays  []bool
}

type Option func(*Backend)

func WithLogger(log *zap.Logger) Option { return func(b *Backend) { b.log = log } }

func NewBackend(cfg Config, port UARTPort, opts ...Option) *Backend {
	if cfg.TransactionTimeout <= 0 {
		cfg.TransactionTimeout = 250 * time.Millisecond
	}
	b := &Backend{cfg: cfg, port: port, log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) Setup(name string) error {
	b.name = name
	b.temps = make([]tempState, b.cfg.TemperatureChannels)
	b.switches = make([]switchState, b.cfg.SwitchChannels)
	b.relays = make([]bool, b.cfg.RelayChannels)
	return nil
}

func (b *Backend) Online() error  { return nil }
func (b *Backend) Offline() error { return nil }
func (b *Backend) Exit()          {}

// Input polls every temperature and switch channel once, each as its
// own request/response transaction. A failed temperature transaction
// records an open-circuit reading on that channel and an unparsable
// reply an invalid one; a failed switch transaction leaves that
// channel's previous value and timestamp in place. None of these
// aborts the phase.
func (b *Backend) Input() error {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.temps {
		line, err := b.transact(fmt.Sprintf("T%d?\n", i))
		if err != nil {
			b.log.Warn("uartserial temperature transaction failed", zap.String("backend", b.name), zap.Int("chan", i), zap.Error(err))
			b.temps[i] = tempState{value: iotypes.TempOpenCirc(), at: now}
			continue
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if perr != nil {
			b.temps[i] = tempState{value: iotypes.TempInvalidVal(), at: now}
			continue
		}
		b.temps[i] = tempState{value: iotypes.TempValue(v), at: now}
	}

	for i := range b.switches {
		line, err := b.transact(fmt.Sprintf("S%d?\n", i))
		if err != nil {
			b.log.Warn("uartserial switch transaction failed", zap.String("backend", b.name), zap.Int("chan", i), zap.Error(err))
			continue
		}
		b.switches[i] = switchState{value: strings.TrimSpace(line) == "1", at: now}
	}
	return nil
}

// Output writes every relay channel's last-requested state as its own
// command transaction.
func (b *Backend) Output() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, state := range b.relays {
		bit := 0
		if state {
			bit = 1
		}
		if _, err := b.transact(fmt.Sprintf("R%d=%d\n", i, bit)); err != nil {
			b.log.Warn("uartserial relay transaction failed", zap.String("backend", b.name), zap.Int("chan", i), zap.Error(err))
			return err
		}
	}
	return nil
}

// transact writes cmd and reads bytes until a newline, bounded by
// cfg.TransactionTimeout, the same Readable()-gated receive shape as
// uart_worker.Register's loop, collapsed to one
// request/response pair instead of a standing reader goroutine.
func (b *Backend) transact(cmd string) (string, error) {
	if _, err := b.port.Write([]byte(cmd)); err != nil {
		return "", hwerr.Wrap("uartserial.transact", hwerr.EOffline, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.TransactionTimeout)
	defer cancel()

	var buf bytes.Buffer
	chunk := make([]byte, 64)
	timer := time.NewTimer(b.cfg.TransactionTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", hwerr.Wrap("uartserial.transact", hwerr.ERStale, ctx.Err())
		case <-b.port.Readable():
			n, err := b.port.RecvSomeContext(ctx, chunk)
			if err != nil {
				return "", hwerr.Wrap("uartserial.transact", hwerr.EOffline, err)
			}
			buf.Write(chunk[:n])
			if idx := bytes.IndexByte(buf.Bytes(), '\n'); idx >= 0 {
				return buf.String()[:idx], nil
			}
			util.ResetTimer(timer, b.cfg.TransactionTimeout)
		case <-timer.C:
			return "", hwerr.ERStale
		}
	}
}

func (b *Backend) TemperatureGet(ch iotypes.BinID) (iotypes.Temperature, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.temps) {
		return iotypes.Temperature{}, hwerr.EInvalid
	}
	return b.temps[idx].value, nil
}

func (b *Backend) TemperatureTimeGet(ch iotypes.BinID) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.temps) {
		return time.Time{}, hwerr.EInvalid
	}
	return b.temps[idx].at, nil
}

func (b *Backend) SwitchGet(ch iotypes.BinID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.switches) {
		return false, hwerr.EInvalid
	}
	return b.switches[idx].value, nil
}

func (b *Backend) SwitchTimeGet(ch iotypes.BinID) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := int(ch)
	if idx < 0 || idx >= len(b.switches) {
		return time.Time{}, hwerr.EInvalid
	}
	return b.switches[idx].at, nil
}

func (b *Backend) RelayStateGet(ch iotypes.BoutID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
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
