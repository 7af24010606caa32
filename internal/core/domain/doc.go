// Package domain defines the core business entities for icdassist.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: A single ICD-11 entity parsed from a raw JSON file
//   - Chunk: A searchable slice of a record's text block
//   - Answer: A generated answer with its citation list
//   - ChatMessage: One turn of the chat contract
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
