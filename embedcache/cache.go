package embedcache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skusearch/ai"
)

var (
	// ErrEmbedderRequired is returned when no inner embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrModelRequired is returned when the model identifier is empty.
	ErrModelRequired = errors.New("model identifier required")
)

// Cache is a persistent text-to-vector cache implementing ai.Embedder.
// Misses are delegated to the wrapped embedder and stored for later runs.
type Cache struct {
	db     *badger.DB
	inner  ai.Embedder
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Cache)(nil)

// Open opens (or creates) a cache at path wrapping the given embedder.
// The model identifier is part of every key: switching models invalidates
// the cache without touching stored entries.
func Open(path string, inner ai.Embedder, model string) (*Cache, error) {
	return open(path, false, inner, model)
}

// OpenInMemory opens a non-persistent cache, used in tests.
func OpenInMemory(inner ai.Embedder, model string) (*Cache, error) {
	return open("", true, inner, model)
}

func open(path string, inMemory bool, inner ai.Embedder, model string) (*Cache, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}

	db, err := openDB(path, inMemory)
	if err != nil {
		return nil, err
	}

	return &Cache{
		db:     db,
		inner:  inner,
		model:  model,
		logger: slog.Default().With("component", "embedcache"),
	}, nil
}

// EmbedText returns the cached vector for text, computing and storing it on
// a miss.
func (c *Cache) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.lookup(text); ok {
		c.logger.Debug("cache hit", "length", len(text))
		return vector, nil
	}

	vector, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	c.put(text, vector)
	return vector, nil
}

// EmbedTexts returns cached vectors where available and batches the misses
// through the wrapped embedder, preserving input order.
func (c *Cache) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missTexts []string
	var missIndexes []int
	for i, text := range texts {
		if vector, ok := c.lookup(text); ok {
			vectors[i] = vector
			continue
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	c.logger.Debug("cache lookup", "texts", len(texts), "misses", len(missTexts))

	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := c.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		// Pass the inner embedder's result through untouched; the caller
		// handles count mismatches.
		return computed, nil
	}

	for j, vector := range computed {
		vectors[missIndexes[j]] = vector
		c.put(missTexts[j], vector)
	}

	return vectors, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// lookup fetches the cached vector for text, if present.
func (c *Cache) lookup(text string) ([]float32, bool) {
	var vector []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeVectorKey(c.model, text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			vector, err = UnmarshalVector(val)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", "err", err)
		}
		return nil, false
	}
	return vector, true
}

// put stores a computed vector. Write failures are logged, not fatal:
// the cache is an optimization, never a correctness dependency.
func (c *Cache) put(text string, vector []float32) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeVectorKey(c.model, text), MarshalVector(vector))
	})
	if err != nil {
		c.logger.Warn("cache write failed", "err", err)
	}
}
