package graphql

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

const sourceName = "schema.graphql"

// Format implements types.SchemaFormat for GraphQL SDL
type Format struct{}

// New creates a new GraphQL format implementation
func New() *Format {
	return &Format{}
}

// Validate loads the document as a complete schema, including type checks
// against the built-in scalars and directives.
func (f *Format) Validate(document string) error {
	if strings.TrimSpace(document) == "" {
		return fmt.Errorf("empty schema document")
	}

	if _, err := gqlparser.LoadSchema(&ast.Source{Name: sourceName, Input: document}); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	return nil
}

// Canonical re-prints the document with the gqlparser formatter so that
// equivalent inputs produce the same text.
func (f *Format) Canonical(document string) (string, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: sourceName, Input: document})
	if err != nil {
		return "", fmt.Errorf("parse schema: %w", err)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String(), nil
}

// RootFields returns the top-level field names selected by the named
// operation of a query document. An empty operation name selects the only
// operation in the document.
func RootFields(query, operationName string) ([]string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	op := selectOperation(doc, operationName)
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", operationName)
	}

	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, fragment := range doc.Fragments {
		fragments[fragment.Name] = fragment
	}

	var fields []string
	collectFields(op.SelectionSet, fragments, map[string]bool{}, &fields)
	return fields, nil
}

func selectOperation(doc *ast.QueryDocument, operationName string) *ast.OperationDefinition {
	if operationName == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	for _, op := range doc.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

func collectFields(set ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, visited map[string]bool, out *[]string) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			*out = append(*out, s.Name)
		case *ast.InlineFragment:
			collectFields(s.SelectionSet, fragments, visited, out)
		case *ast.FragmentSpread:
			if visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			if def, ok := fragments[s.Name]; ok {
				collectFields(def.SelectionSet, fragments, visited, out)
			}
		}
	}
}
