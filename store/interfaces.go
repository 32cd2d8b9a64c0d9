package store

import (
	"context"

	"github.com/poiesic/skusearch/core"
)

// ProductStore provides operations against the product search index.
// Implementations must be thread-safe and support concurrent access.
type ProductStore interface {
	// Ping verifies connectivity with the search service.
	// A failed ping is a hard precondition failure for every later stage.
	Ping(ctx context.Context) error

	// EnsureIndex declares the index with its field mapping if it does not
	// exist yet. dims is the embedding dimensionality declared for the
	// dense vector field. Calling EnsureIndex on an existing index is a
	// no-op, never an error.
	EnsureIndex(ctx context.Context, dims int) error

	// RecreateIndex deletes the index if present and declares it fresh.
	RecreateIndex(ctx context.Context, dims int) error

	// Upsert writes or overwrites one product under its identifier.
	// Re-upserting an existing identifier overwrites the prior document.
	Upsert(ctx context.Context, product *core.Product) error

	// Search runs an approximate k-nearest-neighbor query against the
	// embedding field. numCandidates controls the candidate pool scanned
	// before ranking. Results are ordered by descending similarity score;
	// at most min(k, indexed count) hits are returned.
	Search(ctx context.Context, vector []float32, k, numCandidates int) ([]*core.Hit, error)

	// Close releases the store's resources.
	Close() error
}
