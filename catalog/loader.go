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


package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/skusearch/core"
)

// Column names recognized in the header row. Matching is case-insensitive.
const (
	ColumnID          = "id"
	ColumnName        = "name"
	ColumnCategory    = "category"
	ColumnBrand       = "brand"
	ColumnPrice       = "price"
	ColumnDescription = "description"
)

var (
	// ErrEmptyFile is returned when the source file has no header row.
	ErrEmptyFile = errors.New("catalog file is empty")
)

// Loader reads products from a delimited file.
type Loader struct {
	comma  rune
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithComma sets the field delimiter. Default is ','.
func WithComma(comma rune) Option {
	return func(l *Loader) {
		l.comma = comma
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a new loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		comma:  ',',
		logger: slog.Default().With("component", "catalog-loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads up to limit products from the file at path.
// A limit <= 0 reads the whole file.
func (l *Loader) Load(path string, limit int) ([]*core.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	products, err := l.Read(f, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return products, nil
}

// Read reads up to limit products from r.
// The first row is the header; columns are matched by name, unknown columns
// are ignored, and missing values are normalized to the sentinel.
func (l *Loader) Read(r io.Reader, limit int) ([]*core.Product, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.comma
	reader.FieldsPerRecord = -1 // tolerate ragged rows; missing cells become sentinel

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	columns := mapColumns(header)
	l.logger.Debug("mapped catalog columns", "header", header)

	var products []*core.Product
	for limit <= 0 || len(products) < limit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		product := &core.Product{
			Id:          cell(row, columns, ColumnID),
			Name:        cell(row, columns, ColumnName),
			Category:    cell(row, columns, ColumnCategory),
			Brand:       cell(row, columns, ColumnBrand),
			Price:       cell(row, columns, ColumnPrice),
			Description: cell(row, columns, ColumnDescription),
		}
		product.Normalize()
		products = append(products, product)
	}

	l.logger.Info("loaded catalog", "products", len(products))
	return products, nil
}

// mapColumns builds a case-insensitive column name to index mapping.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

// cell returns the trimmed value of the named column, or "" when the column
// is absent or the row is too short.
func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
