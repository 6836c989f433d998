package tick

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	inputCalls, outputCalls int
	inputErr, outputErr     error
}

func (f *fakeRegistry) Input() error  { f.inputCalls++; return f.inputErr }
func (f *fakeRegistry) Output() error { f.outputCalls++; return f.outputErr }

func TestDriverRunsInputPlantOutputInOrder(t *testing.T) {
	reg := &fakeRegistry{}
	var order []string
	plant := func() { order = append(order, "plant") }

	d := NewDriver(Config{Period: 5 * time.Millisecond}, reg, plant)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	require.NotZero(t, reg.inputCalls, "expected at least one cycle")
	require.NotZero(t, reg.outputCalls, "expected at least one cycle")
	require.Equal(t, reg.outputCalls, reg.inputCalls, "input/output call counts diverged")
	require.Len(t, order, reg.inputCalls, "plant should run once per cycle")
	require.EqualValues(t, reg.inputCalls, d.Ticks())
}

func TestDriverToleratesPhaseErrors(t *testing.T) {
	reg := &fakeRegistry{inputErr: context.DeadlineExceeded}
	d := NewDriver(Config{Period: 5 * time.Millisecond}, reg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	require.NotZero(t, reg.outputCalls, "output phase did not run despite input phase failure")
}
