package reviews

import "slices"

// Review is a single product review written by an author
type Review struct {
	ID       int    `json:"id"`
	AuthorID int    `json:"authorId"`
	UPC      int    `json:"upc"`
	Body     string `json:"body"`
}

// Store enumerates the reviews a resolver filters over
type Store interface {
	// All returns every review in a stable order. Callers may modify the
	// returned slice.
	All() []Review
}

// StaticStore serves a fixed set of reviews that never changes after
// construction.
type StaticStore struct {
	reviews []Review
}

// NewStaticStore creates a store over a copy of the given reviews
func NewStaticStore(reviews []Review) *StaticStore {
	return &StaticStore{reviews: slices.Clone(reviews)}
}

// All returns a copy of the stored reviews
func (s *StaticStore) All() []Review {
	return slices.Clone(s.reviews)
}

// Fixture returns the reviews served by a freshly started subgraph
func Fixture() []Review {
	return []Review{
		{ID: 1, AuthorID: 1, UPC: 1, Body: "Love it!"},
		{ID: 2, AuthorID: 1, UPC: 2, Body: "Too expensive."},
		{ID: 3, AuthorID: 2, UPC: 3, Body: "Could be better."},
		{ID: 4, AuthorID: 2, UPC: 1, Body: "Prefer something else."},
	}
}
