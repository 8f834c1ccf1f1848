package formats

import (
	"testing"

	"reviewsubgraph/internal/schema/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	def := types.SchemaDefinition{
		Name:     "reviews",
		Document: "type Query {\n\treviews(upc: Int!): [Review!]!\n}\n",
		ExtensionDocuments: []string{
			"extend type Product {\n  reviews: [Review] @delegate(path: \"reviewsByProduct(upc: $fields:upc)\")\n}",
			"extend schema @_removeRootTypes {  }",
		},
	}

	for _, name := range []string{"json", "avro", "protobuf"} {
		t.Run(name, func(t *testing.T) {
			codec, err := Codec(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			data, err := codec.Encode(def)
			require.NoError(t, err)

			got, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, def, got)
		})
	}
}

func TestCodec_DecodeRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		data  []byte
	}{
		{name: "JSON Syntax", codec: "json", data: []byte(`{"name": "reviews"`)},
		{name: "JSON Missing Document", codec: "json", data: []byte(`{"name": "reviews", "extensionDocuments": []}`)},
		{name: "JSON Empty Name", codec: "json", data: []byte(`{"name": "", "document": "", "extensionDocuments": []}`)},
		{name: "JSON Wrong Extension Type", codec: "json", data: []byte(`{"name": "reviews", "document": "", "extensionDocuments": [1]}`)},
		{name: "Avro Truncated", codec: "avro", data: []byte{0x0e}},
		{name: "Avro Truncated After Name", codec: "avro", data: []byte{0x02, 'x'}},
		{name: "Avro Trailing Bytes", codec: "avro", data: []byte{0x02, 'x', 0x00, 0x00, 0xff}},
		{name: "Protobuf Garbage", codec: "protobuf", data: []byte{0xff, 0xff, 0xff}},
		{name: "Protobuf Missing Name", codec: "protobuf", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := Codec(tt.codec)
			require.NoError(t, err)

			_, err = codec.Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestCodec_DecodeRejectsEveryAvroPrefix(t *testing.T) {
	codec, err := Codec("avro")
	require.NoError(t, err)

	data, err := codec.Encode(types.SchemaDefinition{
		Name:               "accounts",
		Document:           "type Query { me: User }",
		ExtensionDocuments: []string{"extend type User { id: ID! }"},
	})
	require.NoError(t, err)

	for i := 0; i < len(data); i++ {
		_, err := codec.Decode(data[:i])
		assert.Error(t, err, "prefix of %d bytes", i)
	}
}

func TestCodec_Unknown(t *testing.T) {
	_, err := Codec("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)

	codec, err := Codec("")
	require.NoError(t, err)
	assert.Equal(t, "json", codec.Name())
}
