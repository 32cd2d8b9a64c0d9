// Package embedcache provides a persistent text-to-vector cache that wraps
// an ai.Embedder.
//
// Embedding a catalog is the expensive part of indexing; descriptions rarely
// change between runs. The cache stores each computed vector in BadgerDB
// keyed by a BLAKE2b hash of (model, text), so re-running the pipeline only
// pays for rows whose text or model changed. Switching the embedding model
// changes every key and naturally forces a full re-embed.
package embedcache
