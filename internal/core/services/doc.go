// Package services implements the core business logic for icdassist.
//
// Services implement the driving port interfaces and depend on driven
// port interfaces for infrastructure. They contain the pipeline logic:
// ingestion of raw ICD-11 entities, chunking and batched indexing,
// query expansion, retrieval, and answer assembly.
//
// Services must not import adapters; all infrastructure access goes
// through the ports.
package services
