package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/skusearch/ai"
	"github.com/poiesic/skusearch/core"
	"github.com/poiesic/skusearch/store"
)

// Pipeline embeds product descriptions and writes the augmented products
// into the search index.
type Pipeline struct {
	store          store.ProductStore
	embedder       ai.Embedder
	pool           *ants.Pool
	batchSize      int
	maxRetries     int
	retryDelay     time.Duration
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent upserts.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of descriptions embedded per batch call.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets retry attempts and base backoff delay for embedding calls.
// Defaults are 3 attempts with a 1s base delay.
func WithRetry(maxRetries int, retryDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxRetries <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxRetries
		p.retryDelay = retryDelay
		return nil
	}
}

// WithProgress sets where progress is written and how often.
// Default is no progress output.
func WithProgress(w io.Writer, reportInterval int) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		if reportInterval < 1 {
			reportInterval = 1
		}
		p.progress = w
		p.reportInterval = reportInterval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(productStore store.ProductStore, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if productStore == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:          productStore,
		embedder:       embedder,
		pool:           pool,
		batchSize:      100,
		maxRetries:     3,
		retryDelay:     1 * time.Second,
		progress:       io.Discard,
		reportInterval: 100,
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run embeds and indexes all products, in source order batch by batch.
// Per-record failures never abort the run; they are logged and accumulated
// in the report. The returned error is non-nil only for cancellation.
func (p *Pipeline) Run(ctx context.Context, products []*core.Product) (*core.IndexReport, error) {
	report := &core.IndexReport{}
	if len(products) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	tracker := NewProgressTracker(p.progress, len(products), p.reportInterval)
	tracker.Start()

	for start := 0; start < len(products); start += p.batchSize {
		select {
		case <-ctx.Done():
			wg.Wait()
			tracker.Finish()
			return report, ctx.Err()
		default:
		}

		end := min(start+p.batchSize, len(products))
		batch := products[start:end]

		if err := p.embedBatch(ctx, batch); err != nil {
			p.logger.Error("embedding batch failed", "from", start, "to", end, "err", err)
			mu.Lock()
			for _, product := range batch {
				report.Failures = append(report.Failures, core.IndexFailure{Id: product.Id, Err: err})
			}
			mu.Unlock()
			tracker.Increment(len(batch))
			continue
		}

		for _, product := range batch {
			wg.Add(1)
			submitErr := p.pool.Submit(func() {
				defer wg.Done()
				defer tracker.Increment(1)

				if err := p.store.Upsert(ctx, product); err != nil {
					p.logger.Error("failed to index product", "id", product.Id, "err", err)
					mu.Lock()
					report.Failures = append(report.Failures, core.IndexFailure{Id: product.Id, Err: err})
					mu.Unlock()
					return
				}

				mu.Lock()
				report.Indexed++
				mu.Unlock()
			})
			if submitErr != nil {
				wg.Done()
				tracker.Increment(1)
				mu.Lock()
				report.Failures = append(report.Failures, core.IndexFailure{Id: product.Id, Err: submitErr})
				mu.Unlock()
			}
		}
	}

	wg.Wait()
	tracker.Finish()

	elapsed := tracker.Elapsed()
	p.logger.Info("indexing complete",
		"indexed", report.Indexed, "failed", report.Failed(),
		"elapsed", elapsed.Round(time.Millisecond))

	return report, nil
}

// embedBatch generates embeddings for one batch of products and attaches the
// normalized vectors. Embedding API calls are retried with backoff.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Product) error {
	texts := make([]string, len(batch))
	for i, product := range batch {
		texts[i] = product.Description
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.maxRetries, err)
	}

	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
	}

	// Normalize vectors and assign to products
	for i := range batch {
		batch[i].Vector = NormalizeVector(embeddings[i])
	}

	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
