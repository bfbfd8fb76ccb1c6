package grpcx

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName e' il content-subtype usato dai client ("application/grpc+json").
const JSONCodecName = "json"

// JSONCodec serializza i messaggi gRPC come JSON.
// I contratti in proto/ sono struct Go semplici, senza codice generato.
type JSONCodec struct{}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// Marshal implementa encoding.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return b, nil
}

// Unmarshal implementa encoding.Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

// Name implementa encoding.Codec.
func (JSONCodec) Name() string {
	return JSONCodecName
}
