package iotypes

import "rwchcd-core/hwerr"

// TempState tags the flavour of a Temperature reading. The zero value
// is TempUnset, not TempOk, so a freshly constructed Temperature
// without an explicit state is never mistaken for a valid
// zero-Celsius reading by callers that forget to set State.
type TempState int

const (
	TempUnset TempState = iota
	TempOk
	TempShort
	TempDisconnected
	TempInvalid
)

// Temperature is the proper sum type called for by the redesign note
// in place of the source controller's sentinel-float encoding:
// Ok(value) | Short | Disconnected | Invalid | Unset. Value is
// meaningful only when State == TempOk.
type Temperature struct {
	State TempState
	Value float64 // Celsius, valid only when State == TempOk
}

func TempValue(celsius float64) Temperature { return Temperature{State: TempOk, Value: celsius} }
func TempShortCirc() Temperature             { return Temperature{State: TempShort} }
func TempOpenCirc() Temperature              { return Temperature{State: TempDisconnected} }
func TempInvalidVal() Temperature            { return Temperature{State: TempInvalid} }
func TempUnsetVal() Temperature              { return Temperature{State: TempUnset} }

func (t Temperature) IsOk() bool { return t.State == TempOk }

// Err reports the hwerr.Code a non-Ok state surfaces to a caller, nil
// for TempOk.
func (t Temperature) Err() error {
	switch t.State {
	case TempOk:
		return nil
	case TempShort:
		return hwerr.ESensorShort
	case TempDisconnected:
		return hwerr.ESensorDiscon
	case TempUnset, TempInvalid:
		return hwerr.EInvalid
	default:
		return hwerr.EUnknown
	}
}

func (t Temperature) String() string {
	switch t.State {
	case TempOk:
		return "ok"
	case TempShort:
		return "short"
	case TempDisconnected:
		return "disconnected"
	case TempInvalid:
		return "invalid"
	case TempUnset:
		return "unset"
	default:
		return "unknown"
	}
}

// Legacy sentinel encoding, kept only at the backend boundary for
// ports of the original C sensor drivers that still hand back a
// sentinel-overloaded float rather than a Temperature directly. None
// of the backends shipped in this module need it.
const (
	SentinelInvalid      = -2000.0
	SentinelUnset        = -2001.0
	SentinelShort        = -2002.0
	SentinelDisconnected = -2003.0
)

// FromSentinel decodes a legacy sentinel-encoded float into a
// Temperature.
func FromSentinel(f float64) Temperature {
	switch f {
	case SentinelInvalid:
		return TempInvalidVal()
	case SentinelUnset:
		return TempUnsetVal()
	case SentinelShort:
		return TempShortCirc()
	case SentinelDisconnected:
		return TempOpenCirc()
	default:
		return TempValue(f)
	}
}

// Sentinel encodes t back into the legacy sentinel-float form.
func (t Temperature) Sentinel() float64 {
	switch t.State {
	case TempInvalid:
		return SentinelInvalid
	case TempUnset:
		return SentinelUnset
	case TempShort:
		return SentinelShort
	case TempDisconnected:
		return SentinelDisconnected
	default:
		return t.Value
	}
}
