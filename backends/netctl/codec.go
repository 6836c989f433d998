package netctl

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec over encoding/json so this
// service can run on grpc-go's transport without a protobuf toolchain
// step. Registered once under the "json" subtype name; callers select
// it with grpc.CallContentSubtype("json") and servers pick it up
// automatically from the request's content-type subtype
// (application/grpc+json).
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
