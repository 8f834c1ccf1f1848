package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"reviewsubgraph/internal/schema/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const definitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "document", "extensionDocuments"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "document": {"type": "string"},
    "extensionDocuments": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("definition.json", definitionSchema)

// Format implements types.DefinitionCodec with JSON, checking decoded
// payloads against a JSON Schema before accepting them.
type Format struct{}

// New creates a new JSON format implementation
func New() *Format {
	return &Format{}
}

func (f *Format) Name() string {
	return "json"
}

func (f *Format) Encode(def types.SchemaDefinition) ([]byte, error) {
	if def.ExtensionDocuments == nil {
		def.ExtensionDocuments = []string{}
	}
	return json.Marshal(def)
}

func (f *Format) Decode(data []byte) (types.SchemaDefinition, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("unmarshal JSON: %w", err)
	}

	if err := compiledSchema.Validate(raw); err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("validate data: %w", err)
	}

	var def types.SchemaDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("unmarshal definition: %w", err)
	}
	return def, nil
}
