package graph

import (
	"context"
	_ "embed"
	"fmt"

	"reviewsubgraph/internal/resolver"
	"reviewsubgraph/internal/reviews"
	"reviewsubgraph/internal/schema/types"

	graphql "github.com/graph-gophers/graphql-go"
)

//go:embed stitching.graphql
var stitchingDocument string

// RemoveRootTypes tells the stitching layer not to merge this subgraph's
// root types into the gateway schema.
const RemoveRootTypes = "extend schema @_removeRootTypes {  }"

// ExtensionDocuments returns the fragments published alongside the schema
// document. Order matters: the stitching layer applies them in sequence.
func ExtensionDocuments() []string {
	return []string{stitchingDocument, RemoveRootTypes}
}

// BuildDefinition renders the subgraph schema, checks and canonicalises it
// with format, and pairs it with the extension fragments under name.
func BuildDefinition(name string, format types.SchemaFormat) (types.SchemaDefinition, error) {
	sdl := BuildSDL(Objects)
	if err := format.Validate(sdl); err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("validate schema: %w", err)
	}

	document, err := format.Canonical(sdl)
	if err != nil {
		return types.SchemaDefinition{}, fmt.Errorf("canonicalise schema: %w", err)
	}

	return types.SchemaDefinition{
		Name:               name,
		Document:           document,
		ExtensionDocuments: ExtensionDocuments(),
	}, nil
}

// Executor runs GraphQL operations against the subgraph schema
type Executor struct {
	schema *graphql.Schema
	sdl    string
}

// New parses the subgraph schema and binds it to res
func New(res *resolver.Resolver, opts ...graphql.SchemaOpt) (*Executor, error) {
	sdl := BuildSDL(Objects)
	opts = append([]graphql.SchemaOpt{graphql.MaxParallelism(20)}, opts...)

	schema, err := graphql.ParseSchema(sdl, &queryResolver{res: res}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &Executor{schema: schema, sdl: sdl}, nil
}

// SDL returns the schema text the executor was built from
func (e *Executor) SDL() string {
	return e.sdl
}

// Exec runs a single operation. Request-level failures are reported in
// the response's errors, as GraphQL requires.
func (e *Executor) Exec(ctx context.Context, query, operationName string, variables map[string]interface{}) *graphql.Response {
	return e.schema.Exec(ctx, query, operationName, variables)
}

type queryResolver struct {
	res *resolver.Resolver
}

func (q *queryResolver) Reviews(args struct{ Upc int32 }) []*reviewResolver {
	return wrapReviews(q.res.Reviews(int(args.Upc)))
}

func (q *queryResolver) ReviewsByAuthor(args struct{ AuthorID int32 }) []*reviewResolver {
	return wrapReviews(q.res.ReviewsByAuthor(int(args.AuthorID)))
}

func (q *queryResolver) ReviewsByProduct(args struct{ Upc int32 }) []*reviewResolver {
	return wrapReviews(q.res.ReviewsByProduct(int(args.Upc)))
}

// SchemaDefinition resolves the _schemaDefinition field. A nil result
// becomes a null field, not an error.
func (q *queryResolver) SchemaDefinition(args struct{ Configuration string }) *schemaDefinitionResolver {
	def, ok := q.res.SchemaDefinition(args.Configuration)
	if !ok {
		return nil
	}
	return &schemaDefinitionResolver{def: def}
}

func wrapReviews(rs []reviews.Review) []*reviewResolver {
	out := make([]*reviewResolver, 0, len(rs))
	for _, r := range rs {
		out = append(out, &reviewResolver{r: r})
	}
	return out
}

type reviewResolver struct {
	r reviews.Review
}

func (r *reviewResolver) ID() int32       { return int32(r.r.ID) }
func (r *reviewResolver) AuthorID() int32 { return int32(r.r.AuthorID) }
func (r *reviewResolver) UPC() int32      { return int32(r.r.UPC) }
func (r *reviewResolver) Body() string    { return r.r.Body }

type schemaDefinitionResolver struct {
	def types.SchemaDefinition
}

func (s *schemaDefinitionResolver) Name() string     { return s.def.Name }
func (s *schemaDefinitionResolver) Document() string { return s.def.Document }

func (s *schemaDefinitionResolver) ExtensionDocuments() []string {
	if s.def.ExtensionDocuments == nil {
		return []string{}
	}
	return s.def.ExtensionDocuments
}
