// Package mock provides test doubles for the ai interfaces.
//
// The mock embedder is deterministic: the same text always produces the same
// vector. Vectors are built from hashed token counts, so texts sharing words
// score closer under cosine similarity than unrelated texts. That is crude,
// but it is enough for ranking assertions in tests without a real model.
package mock
