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


package core

import "fmt"

// ValidateProduct validates a Product according to domain rules.
//
// Validation rules:
//   - Id must not be empty (Normalize assigns a content ID when the source
//     row has none)
//   - Description must not be empty (Normalize substitutes the Sentinel)
//
// NOT validated (populated later):
//   - Vector (can be empty until the embedding stage runs)
func ValidateProduct(product *Product) error {
	if product == nil {
		return fmt.Errorf("%w: product is nil", ErrInvalidProduct)
	}

	if product.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyID)
	}

	if product.Description == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyDescription)
	}

	return nil
}
