// Package iotypes holds the small value types shared across the core:
// channel identifiers, capability type tags, and the temperature sum
// type. None of these carry behaviour beyond conversions; they exist
// so backend, meta, and iofacade can agree on a vocabulary without
// importing each other.
package iotypes

// BackendID indexes the Registry's backend table.
type BackendID int

// BinID is a backend-local input channel id (temperature or switch).
type BinID int

// BoutID is a backend-local output channel id (relay).
type BoutID int

// ChanIn identifies one input channel of one backend.
type ChanIn struct {
	Backend BackendID
	Chan    BinID
}

// ChanOut identifies one output channel of one backend.
type ChanOut struct {
	Backend BackendID
	Chan    BoutID
}

// Kind tags the three input/output flavours a backend can expose.
type Kind int

const (
	KindTemp Kind = iota
	KindSwitch
	KindRelay
)

func (k Kind) String() string {
	switch k {
	case KindTemp:
		return "temperature"
	case KindSwitch:
		return "switch"
	case KindRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// ItID and OrID are the façade's external handles (see iofacade).
// Handle 0 is always reserved/invalid; a valid handle is the 1-based
// external form of an internal, 0-based slice index.
type ItID int
type OrID int

const (
	InvalidItID ItID = 0
	InvalidOrID OrID = 0
)

// InternalIndex converts a 1-based external handle to its 0-based
// slice index, reporting false for the reserved 0 handle.
func (id ItID) InternalIndex() (int, bool) {
	if id == InvalidItID {
		return 0, false
	}
	return int(id) - 1, true
}

func (id OrID) InternalIndex() (int, bool) {
	if id == InvalidOrID {
		return 0, false
	}
	return int(id) - 1, true
}

// ExternalItID and ExternalOrID offset a 0-based slice index to its
// 1-based external handle.
func ExternalItID(idx int) ItID { return ItID(idx + 1) }
func ExternalOrID(idx int) OrID { return OrID(idx + 1) }
