package elastic

import (
	"encoding/json"

	"github.com/poiesic/skusearch/core"
)

// VectorField is the name of the dense vector field in the index mapping.
const VectorField = "description_vector"

// sourceFields is the field subset projected into search results.
var sourceFields = []string{"name", "category", "brand", "price", "description"}

// productDocument is the document shape stored in Elasticsearch.
// The identifier is the document _id, not a body field.
type productDocument struct {
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Brand             string    `json:"brand"`
	Price             string    `json:"price"`
	Description       string    `json:"description"`
	DescriptionVector []float32 `json:"description_vector,omitempty"`
}

func documentFromProduct(p *core.Product) *productDocument {
	return &productDocument{
		Name:              p.Name,
		Category:          p.Category,
		Brand:             p.Brand,
		Price:             p.Price,
		Description:       p.Description,
		DescriptionVector: p.Vector,
	}
}

func (d *productDocument) toProduct(id string) *core.Product {
	return &core.Product{
		Id:          id,
		Name:        d.Name,
		Category:    d.Category,
		Brand:       d.Brand,
		Price:       d.Price,
		Description: d.Description,
	}
}

// buildMapping renders the index mapping with the vector field's declared
// dimensionality and cosine similarity.
func buildMapping(dims int) ([]byte, error) {
	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"name":        map[string]any{"type": "text"},
				"category":    map[string]any{"type": "keyword"},
				"brand":       map[string]any{"type": "keyword"},
				"price":       map[string]any{"type": "keyword"},
				"description": map[string]any{"type": "text"},
				VectorField: map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	return json.Marshal(mapping)
}

// buildKNNQuery renders the approximate nearest-neighbor search body.
func buildKNNQuery(vector []float32, k, numCandidates int) ([]byte, error) {
	body := map[string]any{
		"knn": map[string]any{
			"field":          VectorField,
			"query_vector":   vector,
			"k":              k,
			"num_candidates": numCandidates,
		},
		"_source": sourceFields,
	}
	return json.Marshal(body)
}

// searchResponse mirrors the subset of the search API response we consume.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Score  float32         `json:"_score"`
			Source productDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
