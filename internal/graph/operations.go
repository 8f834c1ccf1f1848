package graph

import (
	"strings"
)

// Argument is a named, typed input of a field
type Argument struct {
	Name string
	Type string
}

// Field describes one field of an object type: its arguments and the
// GraphQL type it returns.
type Field struct {
	Name string
	Args []Argument
	Type string
}

// Object is a named GraphQL object type
type Object struct {
	Name   string
	Fields []Field
}

// Query lists the operations this subgraph exposes
var Query = Object{
	Name: "Query",
	Fields: []Field{
		{Name: "reviews", Args: []Argument{{Name: "upc", Type: "Int!"}}, Type: "[Review!]!"},
		{Name: "reviewsByAuthor", Args: []Argument{{Name: "authorId", Type: "Int!"}}, Type: "[Review!]!"},
		{Name: "reviewsByProduct", Args: []Argument{{Name: "upc", Type: "Int!"}}, Type: "[Review!]!"},
		{Name: "_schemaDefinition", Args: []Argument{{Name: "configuration", Type: "String!"}}, Type: "SchemaDefinition"},
	},
}

// Review is the shape of a returned review
var Review = Object{
	Name: "Review",
	Fields: []Field{
		{Name: "id", Type: "Int!"},
		{Name: "authorId", Type: "Int!"},
		{Name: "upc", Type: "Int!"},
		{Name: "body", Type: "String!"},
	},
}

// SchemaDefinition is the shape of the meta-query result
var SchemaDefinition = Object{
	Name: "SchemaDefinition",
	Fields: []Field{
		{Name: "name", Type: "String!"},
		{Name: "document", Type: "String!"},
		{Name: "extensionDocuments", Type: "[String!]!"},
	},
}

// Objects is every type in the subgraph schema, root type first
var Objects = []Object{Query, Review, SchemaDefinition}

// BuildSDL renders object declarations as schema definition language
func BuildSDL(objects []Object) string {
	var b strings.Builder
	for i, obj := range objects {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("type ")
		b.WriteString(obj.Name)
		b.WriteString(" {\n")
		for _, f := range obj.Fields {
			b.WriteString("  ")
			b.WriteString(f.Name)
			if len(f.Args) > 0 {
				args := make([]string, 0, len(f.Args))
				for _, a := range f.Args {
					args = append(args, a.Name+": "+a.Type)
				}
				b.WriteString("(")
				b.WriteString(strings.Join(args, ", "))
				b.WriteString(")")
			}
			b.WriteString(": ")
			b.WriteString(f.Type)
			b.WriteString("\n")
		}
		b.WriteString("}\n")
	}
	return b.String()
}
