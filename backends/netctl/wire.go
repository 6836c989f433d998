// Package netctl is the network-attached backend: every channel read
// or write is forwarded over gRPC to a remote device controller
// instead of touching local hardware. Grounded on octoreflex's
// internal/gossip/server.go (zap-logged unary gRPC service, dialled
// with google.golang.org/grpc) but without the mTLS/Ed25519 envelope
// machinery gossip needs for untrusted peers: netctl dials a single
// trusted controller process on a private network, so plain
// credentials.NewTLS or insecure.NewCredentials (set by the caller) is
// enough.
//
// The wire messages are plain JSON rather than protobuf: netctl
// registers a custom grpc "json" codec (codec.go) and a hand-written
// grpc.ServiceDesc (service.go) instead of depending on a protoc code
// generation step, while still running on the real gRPC transport,
// framing, and call machinery.
package netctl

// ReadRequest asks the controller for the current value of one
// channel of one kind.
type ReadRequest struct {
	Kind string `json:"kind"` // "temperature" | "switch" | "relay"
	Chan int    `json:"chan"`
}

// TemperatureReading mirrors iotypes.Temperature's state names over
// the wire rather than shipping the legacy sentinel encoding.
type TemperatureReading struct {
	State string  `json:"state"` // ok | short | disconnected | invalid | unset
	Value float64 `json:"value"`
}

type ReadResponse struct {
	Temperature       *TemperatureReading `json:"temperature,omitempty"`
	Switch            *bool               `json:"switch,omitempty"`
	TimestampUnixNano int64               `json:"ts_ns"`
	Err               string              `json:"err,omitempty"`
}

type WriteRequest struct {
	Chan  int  `json:"chan"`
	State bool `json:"state"`
}

type WriteResponse struct {
	Err string `json:"err,omitempty"`
}
