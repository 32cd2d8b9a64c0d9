package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/skusearch/ai/mock"
	"github.com/poiesic/skusearch/core"
	"github.com/poiesic/skusearch/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore wraps a memory store and captures the search parameters.
type recordingStore struct {
	*memory.Store
	lastK             int
	lastNumCandidates int
}

func (r *recordingStore) Search(ctx context.Context, vector []float32, k, numCandidates int) ([]*core.Hit, error) {
	r.lastK = k
	r.lastNumCandidates = numCandidates
	return r.Store.Search(ctx, vector, k, numCandidates)
}

// indexCatalog embeds and upserts a small catalog into the store.
func indexCatalog(t *testing.T, productStore *memory.Store, embedder *mock.MockEmbedder) {
	t.Helper()
	ctx := context.Background()

	products := []*core.Product{
		{Id: "sku-1", Name: "Trail Runner", Description: "Blue running shoes"},
		{Id: "sku-2", Name: "Country Boot", Description: "Red leather boots"},
		{Id: "sku-3", Name: "Beach Walker", Description: "Green sandals"},
	}

	require.NoError(t, productStore.EnsureIndex(ctx, mock.DefaultDimensions))
	for _, product := range products {
		vector, err := embedder.EmbedText(ctx, product.Description)
		require.NoError(t, err)
		product.Vector = vector
		require.NoError(t, productStore.Upsert(ctx, product))
	}
}

func TestNewSearcherValidation(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewSearcher(nil, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewSearcher(memory.NewStore(), nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})
}

func TestSearchRanking(t *testing.T) {
	ctx := context.Background()
	productStore := memory.NewStore()
	embedder := mock.NewMockEmbedder()
	indexCatalog(t, productStore, embedder)

	searcher, err := NewSearcher(productStore, embedder)
	require.NoError(t, err)

	hits, err := searcher.Search(ctx, "Blue Shoes", 2, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// The product sharing query terms ranks first.
	assert.Equal(t, "sku-1", hits[0].Product.Id)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchReturnsScoresAndProjectedFields(t *testing.T) {
	ctx := context.Background()
	productStore := memory.NewStore()
	embedder := mock.NewMockEmbedder()
	indexCatalog(t, productStore, embedder)

	searcher, err := NewSearcher(productStore, embedder)
	require.NoError(t, err)

	hits, err := searcher.Search(ctx, "running shoes", 1, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.NotEmpty(t, hit.Product.Name)
	assert.NotEmpty(t, hit.Product.Description)
	assert.Greater(t, hit.Score, float32(0))
	assert.Nil(t, hit.Product.Vector, "stored vectors are not returned to callers")
}

func TestSearchKLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	productStore := memory.NewStore()
	embedder := mock.NewMockEmbedder()
	indexCatalog(t, productStore, embedder)

	searcher, err := NewSearcher(productStore, embedder)
	require.NoError(t, err)

	hits, err := searcher.Search(ctx, "shoes", 50, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 3, "returns at most the number of indexed products")
}

func TestSearchInvalidK(t *testing.T) {
	searcher, err := NewSearcher(memory.NewStore(), mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "shoes", 0, 10)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestSearchCandidatePoolClamping(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	recording := &recordingStore{Store: memory.NewStore()}
	indexCatalog(t, recording.Store, embedder)

	searcher, err := NewSearcher(recording, embedder)
	require.NoError(t, err)

	t.Run("raises numCandidates to k", func(t *testing.T) {
		_, err := searcher.Search(ctx, "shoes", 20, 5)
		require.NoError(t, err)
		assert.Equal(t, 20, recording.lastNumCandidates)
	})

	t.Run("defaults numCandidates when unset", func(t *testing.T) {
		_, err := searcher.Search(ctx, "shoes", 2, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultNumCandidates, recording.lastNumCandidates)
	})
}

func TestSearchEmbeddingFailure(t *testing.T) {
	embedErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, embedErr
	}

	searcher, err := NewSearcher(memory.NewStore(), embedder)
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "shoes", 2, 10)
	assert.ErrorIs(t, err, embedErr)
}

func TestSearchWithMonitor(t *testing.T) {
	ctx := context.Background()
	productStore := memory.NewStore()
	embedder := mock.NewMockEmbedder()
	indexCatalog(t, productStore, embedder)

	searcher, err := NewSearcher(productStore, embedder)
	require.NoError(t, err)

	monitor := &capturingMonitor{}
	hits, err := searcher.SearchWithMonitor(ctx, "Blue Shoes", 2, 10, monitor)
	require.NoError(t, err)

	assert.Equal(t, "Blue Shoes", monitor.query)
	assert.Len(t, monitor.vector, mock.DefaultDimensions)
	assert.Equal(t, hits, monitor.hits)
}

type capturingMonitor struct {
	query  string
	vector []float32
	hits   []*core.Hit
}

func (c *capturingMonitor) Start(query string)                 { c.query = query }
func (c *capturingMonitor) AfterQueryEmbedding(vec []float32)  { c.vector = vec }
func (c *capturingMonitor) Finish(hits []*core.Hit)            { c.hits = hits }
