package avro

import (
	"errors"
	"fmt"

	"reviewsubgraph/internal/schema/types"

	"github.com/hamba/avro/v2"
)

const definitionSchema = `{
  "type": "record",
  "name": "SchemaDefinition",
  "namespace": "reviewsubgraph.v1",
  "fields": [
    {"name": "name", "type": "string"},
    {"name": "document", "type": "string"},
    {"name": "extensionDocuments", "type": {"type": "array", "items": "string"}}
  ]
}`

var schema = avro.MustParse(definitionSchema)

// Format implements types.DefinitionCodec for Avro binary encoding
type Format struct{}

// New creates a new Avro format implementation
func New() *Format {
	return &Format{}
}

func (f *Format) Name() string {
	return "avro"
}

// Schema returns the Avro schema definitions are written with
func (f *Format) Schema() string {
	return schema.String()
}

func (f *Format) Encode(def types.SchemaDefinition) ([]byte, error) {
	if def.ExtensionDocuments == nil {
		def.ExtensionDocuments = []string{}
	}
	data, err := avro.Marshal(schema, def)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return data, nil
}

func (f *Format) Decode(data []byte) (types.SchemaDefinition, error) {
	// avro.Unmarshal treats running out of input as success, so read
	// through a Reader and check its error directly.
	var def types.SchemaDefinition
	r := avro.NewReader(nil, 0).Reset(data)
	r.ReadVal(schema, &def)
	if r.Error != nil {
		return types.SchemaDefinition{}, fmt.Errorf("deserialize: %w", r.Error)
	}

	r.Read(make([]byte, 1))
	if r.Error == nil {
		return types.SchemaDefinition{}, errors.New("deserialize: trailing bytes after definition")
	}
	if def.Name == "" {
		return types.SchemaDefinition{}, fmt.Errorf("deserialize: missing name")
	}
	return def, nil
}
