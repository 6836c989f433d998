package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

type fakeRelayWriter struct {
	states map[iotypes.ChanOut]bool
	errs   map[iotypes.ChanOut]error
	calls  int
}

func newFakeRelayWriter() *fakeRelayWriter {
	return &fakeRelayWriter{states: map[iotypes.ChanOut]bool{}, errs: map[iotypes.ChanOut]error{}}
}

func (f *fakeRelayWriter) RelayStateSet(ch iotypes.ChanOut, state bool) error {
	f.calls++
	if err, ok := f.errs[ch]; ok {
		return err
	}
	f.states[ch] = state
	return nil
}

func chanOut(n int) iotypes.ChanOut { return iotypes.ChanOut{Backend: 0, Chan: iotypes.BoutID(n)} }

func TestRelayGrabThawExclusion(t *testing.T) {
	w := newFakeRelayWriter()
	r := NewRelay(RelayConfig{Targets: []iotypes.ChanOut{chanOut(0)}, Op: RelayFirst}, w)

	require.NoError(t, r.Grab(), "first Grab")
	require.Equal(t, hwerr.EExists, hwerr.Of(r.Grab()), "second Grab")
	r.Thaw()
	require.NoError(t, r.Grab(), "Grab after Thaw")
}

func TestRelayStateSetCoalescesNoopAndFansOut(t *testing.T) {
	w := newFakeRelayWriter()
	a, b := chanOut(0), chanOut(1)
	r := NewRelay(RelayConfig{Targets: []iotypes.ChanOut{a, b}, Op: RelayAll}, w)

	require.NoError(t, r.StateSet(true))
	require.True(t, w.states[a], "target a not set")
	require.True(t, w.states[b], "target b not set")

	calls := w.calls
	require.NoError(t, r.StateSet(true), "coalesced StateSet(true)")
	require.Equal(t, calls, w.calls, "coalesced call reached the backend")
}

func TestRelayMissingFailAbortsAndPreservesState(t *testing.T) {
	w := newFakeRelayWriter()
	a := chanOut(0)
	w.errs[a] = hwerr.EOffline
	r := NewRelay(RelayConfig{Targets: []iotypes.ChanOut{a}, Op: RelayFirst, Missing: MissingFail}, w)

	require.Equal(t, hwerr.EOffline, hwerr.Of(r.StateSet(true)))
	require.False(t, r.StateGet(), "unchanged after failure")
}

func TestRelayAccountingInvariant(t *testing.T) {
	w := newFakeRelayWriter()
	a := chanOut(0)
	now := time.Unix(1000, 0)
	clk := &fakeClock{t: now}
	r := NewRelay(RelayConfig{Targets: []iotypes.ChanOut{a}, Op: RelayFirst}, w, WithRelayClock(clk.now))

	clk.t = now.Add(10 * time.Second)
	require.NoError(t, r.StateSet(true))
	clk.t = now.Add(30 * time.Second)
	require.NoError(t, r.StateSet(false))
	clk.t = now.Add(45 * time.Second)

	on, off := r.OnTotal(), r.OffTotal()
	elapsed := clk.t.Sub(r.CreatedAt())
	require.Equal(t, elapsed, on+off, "on+off should equal elapsed time since creation")
	require.EqualValues(t, 1, r.Cycles())
}

func TestRelayUnconfiguredReturnsNotConfigured(t *testing.T) {
	r := NewRelay(RelayConfig{}, newFakeRelayWriter())
	require.Equal(t, hwerr.ENotConfigured, r.StateSet(true))
}
