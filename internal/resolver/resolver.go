package resolver

import (
	"log/slog"

	"reviewsubgraph/internal/reviews"
	"reviewsubgraph/internal/schema/types"
)

// SchemaLookup is the read side of the schema registry
type SchemaLookup interface {
	Lookup(name string) (types.SchemaDefinition, bool)
}

// Resolver answers the review queries and the schema definition
// meta-query. It holds no mutable state of its own.
type Resolver struct {
	store   reviews.Store
	schemas SchemaLookup
}

// New creates a resolver over a review store and a schema registry
func New(store reviews.Store, schemas SchemaLookup) *Resolver {
	return &Resolver{store: store, schemas: schemas}
}

// Reviews returns the reviews of the product with the given UPC
func (r *Resolver) Reviews(upc int) []reviews.Review {
	return r.filter(func(rv reviews.Review) bool { return rv.UPC == upc })
}

// ReviewsByProduct is the product-named twin of Reviews and always
// returns the same result.
func (r *Resolver) ReviewsByProduct(upc int) []reviews.Review {
	return r.Reviews(upc)
}

// ReviewsByAuthor returns the reviews written by the given author
func (r *Resolver) ReviewsByAuthor(authorID int) []reviews.Review {
	return r.filter(func(rv reviews.Review) bool { return rv.AuthorID == authorID })
}

// SchemaDefinition returns the definition registered under configuration.
// A miss is reported through the boolean, never as an error.
func (r *Resolver) SchemaDefinition(configuration string) (types.SchemaDefinition, bool) {
	def, ok := r.schemas.Lookup(configuration)
	if !ok {
		slog.Debug("Schema definition not found", "configuration", configuration)
	}
	return def, ok
}

func (r *Resolver) filter(keep func(reviews.Review) bool) []reviews.Review {
	matched := make([]reviews.Review, 0)
	for _, rv := range r.store.All() {
		if keep(rv) {
			matched = append(matched, rv)
		}
	}
	return matched
}
