// Package rag implements the layered retrieval-and-answer pipeline:
// similarity search over the chunk store, context building, the streaming
// response parser, and the tiered answer orchestrator.
package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/beri-ai/cli/internal/corpus"
)

// ScoredChunk is a chunk plus its cosine similarity to the query vector.
// Created per query, never persisted.
type ScoredChunk struct {
	corpus.Chunk
	Score float64
}

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSource supplies the embedded chunk set, in chunking order.
type ChunkSource interface {
	All(ctx context.Context) ([]corpus.Chunk, error)
}

// Retriever ranks stored chunks against a query by vector similarity.
type Retriever struct {
	source    ChunkSource
	embedder  Embedder
	topK      int
	threshold float64
}

// NewRetriever creates a retriever. A non-positive topK and a negative
// threshold fall back to the defaults from the original deployment; a
// threshold of exactly zero is honoured and accepts every scored chunk.
func NewRetriever(source ChunkSource, embedder Embedder, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if threshold < 0 {
		threshold = 0.25
	}
	return &Retriever{
		source:    source,
		embedder:  embedder,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the query and returns at most topK chunks scoring at or
// above the threshold, best first. Ties are broken by ascending chunk
// index so results are deterministic. An empty result is a valid outcome,
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]ScoredChunk, error) {
	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	chunks, err := r.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if !chunk.HasEmbedding() {
			continue
		}
		scored = append(scored, ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(qv, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Metadata.ChunkIndex < scored[j].Metadata.ChunkIndex
	})

	var results []ScoredChunk
	for _, sc := range scored {
		if sc.Score < r.threshold {
			break
		}
		results = append(results, sc)
		if len(results) == r.topK {
			break
		}
	}

	return results, nil
}

// ExtractSources returns the unique citations of the given chunks,
// preserving rank order.
func ExtractSources(chunks []ScoredChunk) []corpus.Citation {
	seen := make(map[corpus.Citation]struct{}, len(chunks))
	var sources []corpus.Citation
	for _, chunk := range chunks {
		cite := chunk.Citation()
		if _, ok := seen[cite]; ok {
			continue
		}
		seen[cite] = struct{}{}
		sources = append(sources, cite)
	}
	return sources
}
