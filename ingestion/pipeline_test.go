package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/skusearch/ai/mock"
	"github.com/poiesic/skusearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a function-field test double for store.ProductStore.
type mockStore struct {
	mu         sync.Mutex
	upserted   map[string]*core.Product
	upsertFunc func(ctx context.Context, product *core.Product) error
}

func newMockStore() *mockStore {
	return &mockStore{upserted: make(map[string]*core.Product)}
}

func (m *mockStore) Ping(ctx context.Context) error                     { return nil }
func (m *mockStore) EnsureIndex(ctx context.Context, dims int) error    { return nil }
func (m *mockStore) RecreateIndex(ctx context.Context, dims int) error  { return nil }
func (m *mockStore) Close() error                                       { return nil }

func (m *mockStore) Upsert(ctx context.Context, product *core.Product) error {
	if m.upsertFunc != nil {
		if err := m.upsertFunc(ctx, product); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted[product.Id] = product
	return nil
}

func (m *mockStore) Search(ctx context.Context, vector []float32, k, numCandidates int) ([]*core.Hit, error) {
	return nil, nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

func sampleProducts() []*core.Product {
	return []*core.Product{
		{Id: "sku-1", Name: "Trail Runner", Description: "Blue running shoes"},
		{Id: "sku-2", Name: "Country Boot", Description: "Red leather boots"},
		{Id: "sku-3", Name: "Beach Walker", Description: "Green sandals"},
	}
}

func TestNewPipelineValidation(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewPipeline(nil, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewPipeline(newMockStore(), nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("rejects invalid retry config", func(t *testing.T) {
		_, err := NewPipeline(newMockStore(), mock.NewMockEmbedder(), WithRetry(0, time.Millisecond))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	productStore := newMockStore()
	embedder := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(productStore, embedder, WithRetry(3, 10*time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	products := sampleProducts()
	report, err := pipeline.Run(ctx, products)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Indexed)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 3, productStore.count())

	// Every product carries a vector of the model's fixed dimensionality.
	for _, product := range products {
		assert.Len(t, product.Vector, mock.DefaultDimensions)
	}
}

func TestPipelineVectorsNormalized(t *testing.T) {
	ctx := context.Background()
	productStore := newMockStore()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		result := make([][]float32, len(texts))
		for i := range texts {
			result[i] = []float32{3.0, 4.0} // magnitude 5
		}
		return result, nil
	}

	pipeline, err := NewPipeline(productStore, embedder, WithRetry(3, 10*time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	products := []*core.Product{{Id: "sku-1", Description: "Blue running shoes"}}
	_, err = pipeline.Run(ctx, products)
	require.NoError(t, err)

	vec := products[0].Vector
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 0.001)
	assert.InDelta(t, 0.8, vec[1], 0.001)
}

func TestPipelinePartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	productStore := newMockStore()
	failErr := errors.New("malformed vector")
	productStore.upsertFunc = func(ctx context.Context, product *core.Product) error {
		if product.Id == "sku-2" {
			return failErr
		}
		return nil
	}

	pipeline, err := NewPipeline(productStore, mock.NewMockEmbedder(), WithRetry(3, 10*time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, sampleProducts())
	require.NoError(t, err, "per-record failures never fail the run")

	assert.Equal(t, 2, report.Indexed, "remaining products are still attempted")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "sku-2", report.Failures[0].Id)
	assert.ErrorIs(t, report.Failures[0].Err, failErr)
	assert.Equal(t, 2, productStore.count())
}

func TestPipelineEmbedFailureSkipsBatchOnly(t *testing.T) {
	ctx := context.Background()
	productStore := newMockStore()
	embedErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if strings.Contains(texts[0], "Red") {
			return nil, embedErr
		}
		result := make([][]float32, len(texts))
		for i := range texts {
			result[i] = []float32{1, 0}
		}
		return result, nil
	}

	// Batch size 1: the failing description poisons only its own batch.
	pipeline, err := NewPipeline(productStore, embedder,
		WithBatchSize(1), WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, sampleProducts())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "sku-2", report.Failures[0].Id)
	assert.ErrorIs(t, report.Failures[0].Err, embedErr)
}

func TestPipelineEmbedRetry(t *testing.T) {
	ctx := context.Background()
	productStore := newMockStore()

	attempts := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("temporary error")
		}
		result := make([][]float32, len(texts))
		for i := range texts {
			result[i] = []float32{1, 0}
		}
		return result, nil
	}

	pipeline, err := NewPipeline(productStore, embedder, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, sampleProducts())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "should retry on failure")
	assert.Equal(t, 3, report.Indexed)
}

func TestPipelineEmptyInput(t *testing.T) {
	pipeline, err := NewPipeline(newMockStore(), mock.NewMockEmbedder())
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Empty(t, report.Failures)
}

func TestPipelineContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	productStore := newMockStore()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		cancel() // Cancel during embedding of the first batch
		result := make([][]float32, len(texts))
		for i := range texts {
			result[i] = []float32{1, 0}
		}
		return result, nil
	}

	pipeline, err := NewPipeline(productStore, embedder,
		WithBatchSize(1), WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(ctx, sampleProducts())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineProgressOutput(t *testing.T) {
	var buf strings.Builder
	pipeline, err := NewPipeline(newMockStore(), mock.NewMockEmbedder(),
		WithProgress(&buf, 1), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(context.Background(), sampleProducts())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "3/3")
}
