// Package ingestion orchestrates the indexing pipeline: embed product
// descriptions in batches and upsert the augmented products into the search
// index on a bounded worker pool.
//
// Writes are best-effort. A failing record is logged and recorded in the
// returned report but never aborts the remaining upserts; callers inspect
// the report to decide whether partial success is acceptable.
package ingestion
