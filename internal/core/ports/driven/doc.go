// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding model, the language model,
// the vector index, the metadata store, and the prompt store.
//
// Core services depend on these interfaces only; concrete adapters live
// under internal/adapters/driven and are injected at startup.
package driven
