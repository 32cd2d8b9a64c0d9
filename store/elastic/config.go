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

import "errors"

// Config holds connection parameters for the Elasticsearch cluster.
type Config struct {
	// Addresses is the list of cluster node URLs.
	// Example: ["https://localhost:9200"]
	Addresses []string

	// Username and Password enable basic authentication.
	Username string
	Password string

	// APIKey enables API-key authentication. Takes precedence over
	// basic auth when both are set.
	APIKey string

	// CACertPath is the path to a PEM certificate used as the transport
	// trust anchor. Empty means the system pool.
	CACertPath string

	// Index is the name of the product index.
	Index string
}

// DefaultConfig returns a Config with sensible defaults for a local cluster.
func DefaultConfig() *Config {
	return &Config{
		Addresses: []string{"https://localhost:9200"},
		Index:     "products",
	}
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if len(c.Addresses) == 0 {
		return errors.New("elastic config: Addresses is required")
	}
	if c.Index == "" {
		return errors.New("elastic config: Index is required")
	}
	return nil
}
