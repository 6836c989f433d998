package uartserial

import (
	"context"
	"strings"
	"testing"
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

// fakeUARTPort answers each Write with a canned response line chosen
// by a test-supplied handler, delivered on the next Readable signal.
type fakeUARTPort struct {
	handler func(cmd string) (string, bool)
	pending []byte
	ready   chan struct{}
}

func newFakeUARTPort(handler func(cmd string) (string, bool)) *fakeUARTPort {
	return &fakeUARTPort{handler: handler, ready: make(chan struct{}, 1)}
}

func (f *fakeUARTPort) Write(p []byte) (int, error) {
	if resp, ok := f.handler(string(p)); ok {
		f.pending = []byte(resp + "\n")
		select {
		case f.ready <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

func (f *fakeUARTPort) Read(p []byte) (int, error) { return 0, nil }
func (f *fakeUARTPort) Readable() <-chan struct{}  { return f.ready }
func (f *fakeUARTPort) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	n := copy(p, f.pending)
	f.pending = nil
	return n, nil
}

func TestBackendInputParsesTemperatureAndSwitchLines(t *testing.T) {
	port := newFakeUARTPort(func(cmd string) (string, bool) {
		switch {
		case strings.HasPrefix(cmd, "T0?"):
			return "21.5", true
		case strings.HasPrefix(cmd, "S0?"):
			return "1", true
		default:
			return "", false
		}
	})
	b := NewBackend(Config{TemperatureChannels: 1, SwitchChannels: 1, TransactionTimeout: 100 * time.Millisecond}, port)
	if err := b.Setup("uart0"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := b.Input(); err != nil {
		t.Fatalf("Input: %v", err)
	}

	v, err := b.TemperatureGet(0)
	if err != nil || v.Value != 21.5 {
		t.Fatalf("TemperatureGet = (%v, %v), want (21.5, nil)", v, err)
	}
	sv, err := b.SwitchGet(0)
	if err != nil || !sv {
		t.Fatalf("SwitchGet = (%v, %v), want (true, nil)", sv, err)
	}
}

func TestBackendInputTimeoutYieldsOpenCircuit(t *testing.T) {
	port := newFakeUARTPort(func(cmd string) (string, bool) { return "", false })
	b := NewBackend(Config{TemperatureChannels: 1, TransactionTimeout: 10 * time.Millisecond}, port)
	_ = b.Setup("uart0")
	_ = b.Input()

	v, _ := b.TemperatureGet(0)
	if v.State != iotypes.TempDisconnected {
		t.Fatalf("TemperatureGet state = %v, want TempDisconnected", v.State)
	}
}

func TestBackendOutputSendsRelayCommand(t *testing.T) {
	var gotCmd string
	port := newFakeUARTPort(func(cmd string) (string, bool) {
		gotCmd = cmd
		return "ok", true
	})
	b := NewBackend(Config{RelayChannels: 1, TransactionTimeout: 100 * time.Millisecond}, port)
	_ = b.Setup("uart0")
	if err := b.RelayStateSet(0, true); err != nil {
		t.Fatalf("RelayStateSet: %v", err)
	}
	if err := b.Output(); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if gotCmd != "R0=1\n" {
		t.Fatalf("relay command = %q, want %q", gotCmd, "R0=1\n")
	}
}

func TestBackendGetterBoundsChecked(t *testing.T) {
	b := NewBackend(Config{}, newFakeUARTPort(func(string) (string, bool) { return "", false }))
	_ = b.Setup("uart0")
	if _, err := b.TemperatureGet(0); err != hwerr.EInvalid {
		t.Fatalf("TemperatureGet(0) on empty table = %v, want EInvalid", err)
	}
}
