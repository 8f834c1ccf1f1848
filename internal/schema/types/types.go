package types

import "slices"

// SchemaDefinition describes one named schema: the canonical SDL document
// and the ordered fragments that extend it.
type SchemaDefinition struct {
	Name               string   `json:"name" avro:"name"`
	Document           string   `json:"document" avro:"document"`
	ExtensionDocuments []string `json:"extensionDocuments" avro:"extensionDocuments"`
}

// Clone returns a copy that shares no mutable state with d.
func (d SchemaDefinition) Clone() SchemaDefinition {
	c := d
	c.ExtensionDocuments = slices.Clone(d.ExtensionDocuments)
	return c
}

// SchemaFormat defines the interface for schema document formats
type SchemaFormat interface {
	// Validate checks that a document is a well-formed, self-consistent schema
	Validate(document string) error
	// Canonical returns the normalised textual form of a document
	Canonical(document string) (string, error)
}

// DefinitionCodec encodes schema definitions for transport outside the process
type DefinitionCodec interface {
	// Name identifies the codec, e.g. "json"
	Name() string
	// Encode serializes a definition
	Encode(def SchemaDefinition) ([]byte, error)
	// Decode deserializes a definition
	Decode(data []byte) (SchemaDefinition, error)
}
