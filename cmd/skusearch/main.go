// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/skusearch/ai"
	"github.com/poiesic/skusearch/ai/openai"
	"github.com/poiesic/skusearch/catalog"
	"github.com/poiesic/skusearch/embedcache"
	"github.com/poiesic/skusearch/ingestion"
	"github.com/poiesic/skusearch/search"
	"github.com/poiesic/skusearch/store/elastic"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "skusearch",
		Usage: "Semantic product search over an Elasticsearch catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ping",
				Usage:  "Verify connectivity to the Elasticsearch cluster",
				Action: pingCommand,
				Flags:  elasticFlags(),
			},
			{
				Name:   "index",
				Usage:  "Load a product catalog from CSV, embed descriptions, and index them",
				Action: indexCommand,
				Flags: append(append(elasticFlags(), embeddingFlags()...),
					&cli.StringFlag{
						Name:     "csv",
						Aliases:  []string{"f"},
						Usage:    "Path to the product catalog CSV file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Index only the first N catalog rows (0 means all)",
					},
					&cli.BoolFlag{
						Name:  "recreate",
						Usage: "Delete and recreate the index before indexing",
					},
					&cli.IntFlag{
						Name:  "preview",
						Usage: "Print the first N loaded products before indexing",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of descriptions to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent index workers (0 means half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N products",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search indexed products by free-text query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(elasticFlags(), embeddingFlags()...),
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.IntFlag{
						Name:  "num-candidates",
						Usage: "Candidate pool size for the approximate search",
						Value: 10,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// elasticFlags are the cluster connection flags shared by every command.
func elasticFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "addresses",
			Aliases: []string{"a"},
			Usage:   "Elasticsearch node URLs",
			Value:   cli.NewStringSlice("https://localhost:9200"),
		},
		&cli.StringFlag{
			Name:  "username",
			Usage: "Basic auth username",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "Basic auth password",
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "API key for authentication (takes precedence over basic auth)",
		},
		&cli.StringFlag{
			Name:  "ca-cert",
			Usage: "Path to the cluster's CA certificate in PEM format",
		},
		&cli.StringFlag{
			Name:    "index",
			Aliases: []string{"i"},
			Usage:   "Name of the product index",
			Value:   "products",
		},
	}
}

// embeddingFlags configure the embedding service used at both indexing and
// query time. The same model must be used for both.
func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Output dimensionality of the embedding model",
			Value: 768,
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Directory for the on-disk embedding cache (empty disables caching)",
		},
	}
}

func pingCommand(c *cli.Context) error {
	ctx := context.Background()

	productStore, err := elastic.Connect(buildElasticConfig(c))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer productStore.Close()

	if err := productStore.Ping(ctx); err != nil {
		return fmt.Errorf("cluster is not reachable: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Cluster is reachable at %s\n", strings.Join(c.StringSlice("addresses"), ", "))
	return nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	// Load catalog
	loader := catalog.NewLoader()
	products, err := loader.Load(c.String("csv"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if n := c.Int("preview"); n > 0 {
		catalog.Preview(os.Stderr, products, n)
		fmt.Fprintln(os.Stderr)
	}

	// Connect and prepare the index
	productStore, err := elastic.Connect(buildElasticConfig(c))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer productStore.Close()

	dims := c.Int("dimensions")
	if c.Bool("recreate") {
		err = productStore.RecreateIndex(ctx, dims)
	} else {
		err = productStore.EnsureIndex(ctx, dims)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare index: %w", err)
	}

	// Create embedder
	embedder, closeEmbedder, err := buildEmbedder(c)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	// Create pipeline
	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithProgress(os.Stderr, c.Int("report-interval")),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}

	pipeline, err := ingestion.NewPipeline(productStore, embedder, opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Catalog: %s (%d products)\n", c.String("csv"), len(products))
	fmt.Fprintf(os.Stderr, "Index: %s\n", c.String("index"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	report, err := pipeline.Run(ctx, products)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d products, %d failures\n", report.Indexed, report.Failed())
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", failure.Id, failure.Err)
	}

	if report.Indexed == 0 && report.Failed() > 0 {
		return fmt.Errorf("all %d products failed to index", report.Failed())
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	productStore, err := elastic.Connect(buildElasticConfig(c))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer productStore.Close()

	embedder, closeEmbedder, err := buildEmbedder(c)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	searcher, err := search.NewSearcher(productStore, embedder)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	hits, err := searcher.Search(ctx, query, c.Int("k"), c.Int("num-candidates"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range hits {
		product := hit.Product
		fmt.Printf("%2d. [%.4f] %s - %s (%s / %s, %s)\n",
			i+1, hit.Score, product.Id, product.Name,
			product.Category, product.Brand, product.Price)
		fmt.Printf("    %s\n", product.Description)
	}
	return nil
}

func buildElasticConfig(c *cli.Context) *elastic.Config {
	return &elastic.Config{
		Addresses:  c.StringSlice("addresses"),
		Username:   c.String("username"),
		Password:   c.String("password"),
		APIKey:     c.String("api-key"),
		CACertPath: c.String("ca-cert"),
		Index:      c.String("index"),
	}
}

// buildEmbedder creates the embedding client, wrapped in the on-disk cache
// when a cache directory is configured. The returned func releases whatever
// was opened.
func buildEmbedder(c *cli.Context) (ai.Embedder, func(), error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDimensions(c.Int("dimensions")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	closeProvider := func() {
		if closeErr := provider.Close(); closeErr != nil {
			slog.Warn("failed to close AI provider", "err", closeErr)
		}
	}

	cacheDir := c.String("cache-dir")
	if cacheDir == "" {
		return provider.Embedder(), closeProvider, nil
	}

	cache, err := embedcache.Open(cacheDir, provider.Embedder(), aiConfig.EmbeddingModel)
	if err != nil {
		closeProvider()
		return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return cache, func() {
		if closeErr := cache.Close(); closeErr != nil {
			slog.Warn("failed to close embedding cache", "err", closeErr)
		}
		closeProvider()
	}, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
