package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/skusearch/ai"
	"github.com/poiesic/skusearch/core"
	"github.com/poiesic/skusearch/store"
)

// DefaultNumCandidates is the per-shard candidate pool size used when the
// caller does not specify one.
const DefaultNumCandidates = 10

// Searcher provides semantic search over indexed products.
type Searcher struct {
	store    store.ProductStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(productStore store.ProductStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if productStore == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    productStore,
		embedder: embedder,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds the products most similar to the query text.
// Returns up to k hits ranked by descending relevance score. numCandidates
// controls the approximate search's candidate pool; values below k are
// raised to k, and zero or negative values fall back to the default.
func (s *Searcher) Search(ctx context.Context, query string, k, numCandidates int) ([]*core.Hit, error) {
	return s.SearchWithMonitor(ctx, query, k, numCandidates, nil)
}

// SearchWithMonitor searches with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, k, numCandidates int, monitor SearchMonitor) ([]*core.Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if numCandidates <= 0 {
		numCandidates = DefaultNumCandidates
	}
	if numCandidates < k {
		s.logger.Debug("raising candidate pool to match k", "k", k, "numCandidates", numCandidates)
		numCandidates = k
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(embedding)

	hits, err := s.store.Search(ctx, embedding, k, numCandidates)
	if err != nil {
		s.logger.Error("error querying for similar products", "err", err)
		return nil, err
	}

	monitor.Finish(hits)
	s.logger.Debug("search complete", "query", query, "hits", len(hits))
	return hits, nil
}
