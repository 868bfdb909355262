package corpus

// ChunkMetadata records where in the source document a chunk came from.
type ChunkMetadata struct {
	Source     string `json:"source"`
	Section    string `json:"section"`
	ChunkIndex int    `json:"chunkIndex"`
}

// Chunk is a retrievable passage of the knowledge base. The embedding is
// absent until the chunk has been through the embedding pass; a chunk is
// never retrievable before then.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the chunk has been embedded.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Citation is a {source, section} pair shown to the user alongside an
// answer. It is passed through to the presentation layer as display text.
type Citation struct {
	Source  string `json:"source"`
	Section string `json:"section"`
}

// Citation returns the chunk's provenance as a displayable citation.
func (c Chunk) Citation() Citation {
	return Citation{Source: c.Metadata.Source, Section: c.Metadata.Section}
}
