// Package memory provides an exact in-memory store.ProductStore.
//
// Search is a brute-force cosine scan over every indexed vector. It exists
// for tests and local experiments; the candidate-pool parameter is accepted
// but ignored because the scan is already exhaustive.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/poiesic/skusearch/core"
	"github.com/poiesic/skusearch/store"
)

// Store is an exact, thread-safe in-memory product index.
type Store struct {
	mu       sync.RWMutex
	created  bool
	dims     int
	products map[string]*core.Product
	order    []string // first-insert order, used for stable tie-breaking
}

var _ store.ProductStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{products: make(map[string]*core.Product)}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// EnsureIndex declares the index with the given dimensionality.
// Calling it again is a no-op, whatever dims is passed.
func (s *Store) EnsureIndex(ctx context.Context, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.created {
		return nil
	}
	s.created = true
	s.dims = dims
	return nil
}

// RecreateIndex drops all documents and declares the index fresh.
func (s *Store) RecreateIndex(ctx context.Context, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = true
	s.dims = dims
	s.products = make(map[string]*core.Product)
	s.order = nil
	return nil
}

// Upsert writes or overwrites one product under its identifier.
// A vector whose length differs from the declared dimensionality is rejected.
func (s *Store) Upsert(ctx context.Context, product *core.Product) error {
	if err := core.ValidateProduct(product); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUpsert, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dims > 0 && len(product.Vector) != s.dims {
		return fmt.Errorf("%w: %w: got %d, want %d",
			store.ErrUpsert, store.ErrDimensionMismatch, len(product.Vector), s.dims)
	}

	if _, exists := s.products[product.Id]; !exists {
		s.order = append(s.order, product.Id)
	}
	s.products[product.Id] = product
	return nil
}

// Search scans every indexed vector, ranks by cosine similarity descending,
// and returns at most k hits. Ties keep first-insert order.
func (s *Store) Search(ctx context.Context, vector []float32, k, numCandidates int) ([]*core.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", store.ErrSearch)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		hit   *core.Hit
		order int
	}

	results := make([]scored, 0, len(s.order))
	for i, id := range s.order {
		product := s.products[id]
		if len(product.Vector) == 0 {
			continue
		}
		results = append(results, scored{
			hit: &core.Hit{
				Product: projected(product),
				Score:   cosineSimilarity(vector, product.Vector),
			},
			order: i,
		})
	}

	slices.SortFunc(results, func(a, b scored) int {
		if a.hit.Score > b.hit.Score {
			return -1
		}
		if a.hit.Score < b.hit.Score {
			return 1
		}
		return a.order - b.order
	})

	if len(results) > k {
		results = results[:k]
	}

	hits := make([]*core.Hit, len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of indexed products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Get returns the indexed product for id, or nil.
func (s *Store) Get(id string) *core.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id]
}

// projected mirrors the field subset a remote search would return:
// descriptive fields and the identifier, without the vector.
func projected(p *core.Product) *core.Product {
	return &core.Product{
		Id:          p.Id,
		Name:        p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Price:       p.Price,
		Description: p.Description,
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths compare only the shared prefix.
func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, normA, normB float32
	for i := 0; i < minLen; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
