package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewsSDL = `type Query {
  reviews(upc: Int!): [Review!]!
}

type Review {
  id: Int!
  body: String!
}
`

func TestFormat_Validate(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		document string
		wantErr  bool
	}{
		{
			name:     "Valid Schema",
			document: reviewsSDL,
		},
		{
			name:     "Empty Document",
			document: "  \n",
			wantErr:  true,
		},
		{
			name:     "Syntax Error",
			document: "type Query {",
			wantErr:  true,
		},
		{
			name:     "Unknown Type",
			document: "type Query { reviews: [Missing] }",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Validate(tt.document)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFormat_Canonical(t *testing.T) {
	f := New()

	compact, err := f.Canonical("type Review{id:Int! body:String!} type Query{reviews(upc:Int!):[Review!]!}")
	require.NoError(t, err)

	spaced, err := f.Canonical(`
		type Review {
			id: Int!
			body: String!
		}

		type Query {
			reviews(upc: Int!): [Review!]!
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, compact, spaced)
	assert.Contains(t, compact, "type Query")
	assert.NoError(t, f.Validate(compact))

	again, err := f.Canonical(compact)
	require.NoError(t, err)
	assert.Equal(t, compact, again)

	_, err = f.Canonical("type {")
	assert.Error(t, err)
}

func TestRootFields(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		operationName string
		want          []string
		wantErr       bool
	}{
		{
			name:  "Anonymous Query",
			query: "{ reviews(upc: 1) { id } }",
			want:  []string{"reviews"},
		},
		{
			name:          "Named Operation",
			query:         "query A { reviews(upc: 1) { id } } query B { reviewsByAuthor(authorId: 2) { id } }",
			operationName: "B",
			want:          []string{"reviewsByAuthor"},
		},
		{
			name:  "Fragments",
			query: "query { ...Root ... on Query { _schemaDefinition(configuration: \"reviews\") { name } } } fragment Root on Query { reviewsByProduct(upc: 1) { id } }",
			want:  []string{"reviewsByProduct", "_schemaDefinition"},
		},
		{
			name:    "Ambiguous Operation",
			query:   "query A { reviews(upc: 1) { id } } query B { reviews(upc: 2) { id } }",
			wantErr: true,
		},
		{
			name:    "Parse Error",
			query:   "{ reviews(",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RootFields(tt.query, tt.operationName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
