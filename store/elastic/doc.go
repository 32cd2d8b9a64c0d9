// Package elastic implements store.ProductStore backed by Elasticsearch.
//
// Documents are keyed by product identifier and carry the embedding in a
// dense_vector field with cosine similarity, declared at index creation.
// Queries use the kNN search API with a configurable candidate pool.
package elastic
