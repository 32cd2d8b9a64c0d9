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


package store

import "errors"

var (
	// ErrUnavailable indicates the search service did not answer the
	// liveness check.
	ErrUnavailable = errors.New("search service unavailable")

	// ErrIndexCreate indicates the index could not be declared.
	ErrIndexCreate = errors.New("index creation failed")

	// ErrUpsert indicates a single document write failed.
	ErrUpsert = errors.New("upsert failed")

	// ErrSearch indicates a query failed.
	ErrSearch = errors.New("search failed")

	// ErrDimensionMismatch indicates a vector whose length does not match
	// the dimensionality declared for the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
