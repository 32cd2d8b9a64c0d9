package elastic

import (
	"encoding/json"
	"testing"

	"github.com/poiesic/skusearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMapping(t *testing.T) {
	body, err := buildMapping(768)
	require.NoError(t, err)

	var mapping map[string]any
	require.NoError(t, json.Unmarshal(body, &mapping))

	properties := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	vector := properties[VectorField].(map[string]any)

	assert.Equal(t, "dense_vector", vector["type"])
	assert.Equal(t, float64(768), vector["dims"])
	assert.Equal(t, "cosine", vector["similarity"])
	assert.Equal(t, true, vector["index"])

	assert.Contains(t, properties, "description")
	assert.Contains(t, properties, "name")
}

func TestBuildKNNQuery(t *testing.T) {
	body, err := buildKNNQuery([]float32{0.1, 0.2}, 5, 50)
	require.NoError(t, err)

	var query map[string]any
	require.NoError(t, json.Unmarshal(body, &query))

	knn := query["knn"].(map[string]any)
	assert.Equal(t, VectorField, knn["field"])
	assert.Equal(t, float64(5), knn["k"])
	assert.Equal(t, float64(50), knn["num_candidates"])
	assert.Len(t, knn["query_vector"], 2)

	source := query["_source"].([]any)
	assert.Contains(t, source, "name")
	assert.Contains(t, source, "description")
	assert.NotContains(t, source, VectorField, "vectors are not projected into results")
}

func TestDocumentConversion(t *testing.T) {
	product := &core.Product{
		Id:          "sku-1",
		Name:        "Trail Runner",
		Category:    "Shoes",
		Brand:       "Northpeak",
		Price:       "89.99",
		Description: "Blue running shoes",
		Vector:      []float32{0.1, 0.2},
	}

	doc := documentFromProduct(product)
	assert.Equal(t, product.Vector, doc.DescriptionVector)

	back := doc.toProduct("sku-1")
	assert.Equal(t, product.Id, back.Id)
	assert.Equal(t, product.Name, back.Name)
	assert.Equal(t, product.Description, back.Description)
	assert.Nil(t, back.Vector, "search projection does not carry the vector")
}

func TestSearchResponseDecoding(t *testing.T) {
	raw := `{
		"hits": {
			"hits": [
				{"_id": "sku-1", "_score": 0.92, "_source": {"name": "Trail Runner", "description": "Blue running shoes"}},
				{"_id": "sku-3", "_score": 0.41, "_source": {"name": "Beach Walker", "description": "Green sandals"}}
			]
		}
	}`

	var decoded searchResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded.Hits.Hits, 2)

	assert.Equal(t, "sku-1", decoded.Hits.Hits[0].ID)
	assert.InDelta(t, 0.92, decoded.Hits.Hits[0].Score, 0.001)
	assert.Equal(t, "Blue running shoes", decoded.Hits.Hits[0].Source.Description)
}
