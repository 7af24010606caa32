// Package driving provides interfaces for the application's entry
// points (primary/inbound ports): ingestion, indexing, and the chat
// assistant. The CLI and TUI adapters call these; core services
// implement them.
package driving
