package domain

// RetrievedChunk pairs a chunk with its similarity score against the
// query embedding. Retrieval results are ordered by descending score.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}
