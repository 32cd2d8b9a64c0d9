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


package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/poiesic/skusearch/core"
	"github.com/poiesic/skusearch/store"
)

// Store implements store.ProductStore backed by an Elasticsearch cluster.
type Store struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

var _ store.ProductStore = (*Store)(nil)

// Connect builds the Elasticsearch client from the configuration and
// verifies connectivity with a liveness check. A failed ping returns
// store.ErrUnavailable; callers must not proceed to later stages.
func Connect(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	esConfig := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
		APIKey:    config.APIKey,
	}

	if config.CACertPath != "" {
		caCert, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		esConfig.CACert = caCert
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	s := &Store{
		client: client,
		index:  config.Index,
		logger: slog.Default().With("component", "elastic-store"),
	}

	if err := s.Ping(context.Background()); err != nil {
		return nil, err
	}

	s.logger.Info("connected to elasticsearch", "addresses", config.Addresses, "index", config.Index)
	return s, nil
}

// Ping verifies connectivity with the cluster.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", store.ErrUnavailable, res.Status())
	}
	return nil
}

// EnsureIndex declares the index with its mapping if it does not exist yet.
// Re-running against an existing index is a no-op.
func (s *Store) EnsureIndex(ctx context.Context, dims int) error {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: exists check: %w", store.ErrIndexCreate, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		s.logger.Debug("index already exists", "index", s.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: exists check: %s", store.ErrIndexCreate, res.Status())
	}

	return s.createIndex(ctx, dims)
}

// RecreateIndex deletes the index if present and declares it fresh.
func (s *Store) RecreateIndex(ctx context.Context, dims int) error {
	res, err := s.client.Indices.Delete(
		[]string{s.index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("%w: delete: %w", store.ErrIndexCreate, err)
	}
	if err := drainAndClose(res, store.ErrIndexCreate); err != nil {
		return err
	}

	return s.createIndex(ctx, dims)
}

func (s *Store) createIndex(ctx context.Context, dims int) error {
	mapping, err := buildMapping(dims)
	if err != nil {
		return fmt.Errorf("%w: mapping: %w", store.ErrIndexCreate, err)
	}

	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(mapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrIndexCreate, err)
	}
	if err := drainAndClose(res, store.ErrIndexCreate); err != nil {
		return err
	}

	s.logger.Info("created index", "index", s.index, "dims", dims)
	return nil
}

// Upsert writes or overwrites one product document under its identifier.
func (s *Store) Upsert(ctx context.Context, product *core.Product) error {
	if err := core.ValidateProduct(product); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUpsert, err)
	}

	body, err := json.Marshal(documentFromProduct(product))
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUpsert, err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(product.Id),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUpsert, err)
	}
	return drainAndClose(res, store.ErrUpsert)
}

// Search runs an approximate kNN query against the vector field and projects
// the declared field subset plus the score into hits.
func (s *Store) Search(ctx context.Context, vector []float32, k, numCandidates int) ([]*core.Hit, error) {
	body, err := buildKNNQuery(vector, k, numCandidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrSearch, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrSearch, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: %s: %s", store.ErrSearch, res.Status(), detail)
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", store.ErrSearch, err)
	}

	hits := make([]*core.Hit, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		hits = append(hits, &core.Hit{
			Product: h.Source.toProduct(h.ID),
			Score:   h.Score,
		})
	}

	s.logger.Debug("search complete", "hits", len(hits), "k", k, "numCandidates", numCandidates)
	return hits, nil
}

// Close releases client resources.
// The underlying transport needs no explicit cleanup.
func (s *Store) Close() error {
	return nil
}

// drainAndClose consumes an API response, converting error statuses into a
// wrapped error with the response detail.
func drainAndClose(res *esapi.Response, sentinel error) error {
	defer res.Body.Close()
	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: %s: %s", sentinel, res.Status(), detail)
	}
	io.Copy(io.Discard, res.Body)
	return nil
}
