package meta

import (
	"testing"
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

// fakeTempSource is a scriptable temperatureSource: each channel maps
// to a mutable (value, time, err) triple the test can rewrite between
// clock advances.
type fakeTempSource struct {
	values map[iotypes.ChanIn]iotypes.Temperature
	times  map[iotypes.ChanIn]time.Time
	errs   map[iotypes.ChanIn]error
	calls  int
}

func newFakeTempSource() *fakeTempSource {
	return &fakeTempSource{
		values: map[iotypes.ChanIn]iotypes.Temperature{},
		times:  map[iotypes.ChanIn]time.Time{},
		errs:   map[iotypes.ChanIn]error{},
	}
}

func (f *fakeTempSource) set(ch iotypes.ChanIn, v float64, at time.Time) {
	f.values[ch] = iotypes.TempValue(v)
	f.times[ch] = at
	delete(f.errs, ch)
}
func (f *fakeTempSource) fail(ch iotypes.ChanIn, err error) { f.errs[ch] = err }

func (f *fakeTempSource) TemperatureGet(ch iotypes.ChanIn) (iotypes.Temperature, error) {
	f.calls++
	if err, ok := f.errs[ch]; ok {
		return iotypes.Temperature{}, err
	}
	return f.values[ch], nil
}
func (f *fakeTempSource) TemperatureTimeGet(ch iotypes.ChanIn) (time.Time, error) {
	if err, ok := f.errs[ch]; ok {
		return time.Time{}, err
	}
	return f.times[ch], nil
}

func chanIn(n int) iotypes.ChanIn { return iotypes.ChanIn{Backend: 0, Chan: iotypes.BinID(n)} }

func TestTemperatureUnconfiguredReturnsNotConfigured(t *testing.T) {
	ti := NewTemperature(TemperatureConfig{}, newFakeTempSource())
	if _, err := ti.Get(); err != hwerr.ENotConfigured {
		t.Fatalf("Get() = %v, want ENotConfigured", err)
	}
}

func TestTemperatureSingleSourceCachesWithinPeriod(t *testing.T) {
	src := newFakeTempSource()
	now := time.Unix(1000, 0)
	clk := &fakeClock{t: now}
	a := chanIn(0)
	src.set(a, 42.0, now)

	ti := NewTemperature(TemperatureConfig{
		Name: "t1", Sources: []iotypes.ChanIn{a}, Op: OpFirst, Period: time.Second,
	}, src, WithTemperatureClock(clk.now))

	v, err := ti.Get()
	if err != nil || v.Value != 42.0 {
		t.Fatalf("Get() = (%v, %v), want (42, nil)", v, err)
	}
	callsAfterFirst := src.calls

	// Within the period: source mutated but cache must not refresh.
	src.set(a, 99.0, now)
	clk.t = now.Add(500 * time.Millisecond)
	v, err = ti.Get()
	if err != nil || v.Value != 42.0 {
		t.Fatalf("cached Get() = (%v, %v), want (42, nil)", v, err)
	}
	if src.calls != callsAfterFirst {
		t.Fatalf("source was polled again inside the refresh period")
	}

	// Past the period: must refresh and observe the new value.
	clk.t = now.Add(2 * time.Second)
	v, err = ti.Get()
	if err != nil || v.Value != 99.0 {
		t.Fatalf("refreshed Get() = (%v, %v), want (99, nil)", v, err)
	}
}

func TestTemperatureMinMaxOperations(t *testing.T) {
	src := newFakeTempSource()
	now := time.Unix(2000, 0)
	a, b, c := chanIn(0), chanIn(1), chanIn(2)
	src.set(a, 30, now)
	src.set(b, 10, now)
	src.set(c, 20, now)

	min := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a, b, c}, Op: OpMin, Period: time.Second,
	}, src, WithTemperatureClock(func() time.Time { return now }))
	if v, err := min.Get(); err != nil || v.Value != 10 {
		t.Fatalf("OpMin = (%v, %v), want 10", v, err)
	}

	max := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a, b, c}, Op: OpMax, Period: time.Second,
	}, src, WithTemperatureClock(func() time.Time { return now }))
	if v, err := max.Get(); err != nil || v.Value != 30 {
		t.Fatalf("OpMax = (%v, %v), want 30", v, err)
	}
}

func TestTemperatureMissingFailPropagatesAndMarksInvalid(t *testing.T) {
	src := newFakeTempSource()
	now := time.Unix(3000, 0)
	a, b := chanIn(0), chanIn(1)
	src.set(a, 10, now)
	src.fail(b, hwerr.ESensorDiscon)

	ti := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a, b}, Op: OpFirst, Missing: MissingFail, Period: time.Second,
	}, src, WithTemperatureClock(func() time.Time { return now }))

	// a alone would succeed under FIRST, but a is sampled first and
	// the op is FIRST so it stops before ever touching b: use MIN so
	// every source is visited and b's failure is observed.
	ti.cfg.Op = OpMin
	if _, err := ti.Get(); hwerr.Of(err) != hwerr.ESensorDiscon {
		t.Fatalf("Get() = %v, want ESensorDiscon", err)
	}
}

func TestTemperatureMissingIgnoreSkipsFailedSource(t *testing.T) {
	src := newFakeTempSource()
	now := time.Unix(4000, 0)
	a, b := chanIn(0), chanIn(1)
	src.fail(a, hwerr.ESensorShort)
	src.set(b, 55, now)

	ti := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a, b}, Op: OpMin, Missing: MissingIgnore, Period: time.Second,
	}, src, WithTemperatureClock(func() time.Time { return now }))

	if v, err := ti.Get(); err != nil || v.Value != 55 {
		t.Fatalf("Get() = (%v, %v), want (55, nil)", v, err)
	}
}

func TestTemperatureMissingIgnoreDefaultSubstitutesValue(t *testing.T) {
	src := newFakeTempSource()
	now := time.Unix(5000, 0)
	a := chanIn(0)
	src.fail(a, hwerr.ESensorDiscon)

	ti := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a}, Op: OpFirst, Missing: MissingIgnoreDefault,
		DefaultValue: 12.5, Period: time.Second,
	}, src, WithTemperatureClock(func() time.Time { return now }))

	if v, err := ti.Get(); err != nil || v.Value != 12.5 {
		t.Fatalf("Get() = (%v, %v), want (12.5, nil)", v, err)
	}
}

func TestTemperatureStalenessTreatedAsMissing(t *testing.T) {
	src := newFakeTempSource()
	epoch := time.Unix(6000, 0)
	a := chanIn(0)
	src.set(a, 18, epoch)

	period := time.Second
	clk := &fakeClock{t: epoch}
	ti := NewTemperature(TemperatureConfig{
		Sources: []iotypes.ChanIn{a}, Op: OpFirst, Missing: MissingFail, Period: period,
	}, src, WithTemperatureClock(clk.now))

	// Advance well past 4P without the source ever updating its
	// timestamp: the sample must be treated as stale, i.e. missing.
	clk.t = epoch.Add(5 * period)
	if _, err := ti.Get(); hwerr.Of(err) != hwerr.ERStale {
		t.Fatalf("Get() after staleness = %v, want ERStale", err)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
