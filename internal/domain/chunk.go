package domain

// DocumentChunk is a bounded-size contiguous slice of extracted page text,
// the unit indexed for similarity search. Chunks from one page are ordered
// by ChunkIndex and identified by (SourceURL, ChunkIndex), so re-ingesting
// the same page overwrites rather than duplicates.
type DocumentChunk struct {
	Text       string
	SourceURL  string
	EntityName string
	ChunkIndex int
	Vector     []float32
}

// ScoredChunk is a retrieval hit: a chunk plus its similarity score in [0,1].
type ScoredChunk struct {
	DocumentChunk
	Score float64
}
