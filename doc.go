// Package semdex provides vector-store orchestration and semantic
// caching over pluggable backends: a search-service index with
// similarity, hybrid, and semantic re-ranking modes, a document
// database with IVF, HNSW, and DiskANN vector indexes, and a
// completion cache that matches prompts by embedding similarity.
//
// Backends are injected as interfaces; the package owns query
// construction, result normalization, re-ranking, and batching, not
// network transport.
package semdex
