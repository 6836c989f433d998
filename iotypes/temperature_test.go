package iotypes

import (
	"testing"

	"rwchcd-core/hwerr"
)

func TestTemperatureOkRoundTrip(t *testing.T) {
	v := TempValue(42.5)
	if !v.IsOk() || v.Value != 42.5 || v.Err() != nil {
		t.Fatalf("unexpected Ok temperature: %+v", v)
	}
}

func TestTemperatureErrStates(t *testing.T) {
	cases := []struct {
		t    Temperature
		want error
	}{
		{TempShortCirc(), hwerr.ESensorShort},
		{TempOpenCirc(), hwerr.ESensorDiscon},
		{TempInvalidVal(), hwerr.EInvalid},
		{TempUnsetVal(), hwerr.EInvalid},
	}
	for _, c := range cases {
		if got := c.t.Err(); got != c.want {
			t.Fatalf("%v.Err() = %v, want %v", c.t, got, c.want)
		}
		if c.t.IsOk() {
			t.Fatalf("%v should not be IsOk", c.t)
		}
	}
}

func TestSentinelRoundTrip(t *testing.T) {
	for _, temp := range []Temperature{
		TempValue(18.0), TempShortCirc(), TempOpenCirc(), TempInvalidVal(), TempUnsetVal(),
	} {
		got := FromSentinel(temp.Sentinel())
		if got != temp {
			t.Fatalf("sentinel round-trip mismatch: got %+v, want %+v", got, temp)
		}
	}
}
