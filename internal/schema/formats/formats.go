package formats

import (
	"errors"
	"fmt"

	"reviewsubgraph/internal/schema/formats/avro"
	jsonformat "reviewsubgraph/internal/schema/formats/json"
	"reviewsubgraph/internal/schema/formats/protobuf"
	"reviewsubgraph/internal/schema/types"
)

// ErrUnknownCodec is returned by Codec for names it does not recognise
var ErrUnknownCodec = errors.New("unknown codec")

// Codec returns the definition codec registered under name
func Codec(name string) (types.DefinitionCodec, error) {
	switch name {
	case "json", "":
		return jsonformat.New(), nil
	case "avro":
		return avro.New(), nil
	case "protobuf":
		f, err := protobuf.New()
		if err != nil {
			return nil, fmt.Errorf("protobuf codec: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
}
