package corpus

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// minChunkLen drops separator blocks too short to be worth retrieving.
	minChunkLen = 80
	// splitBlockLen is the size above which a multi-section block is split
	// into one chunk per subsection.
	splitBlockLen = 1800
	// carryOverMaxLen bounds the heading-less preamble that gets prepended
	// to the next subsection instead of being emitted on its own.
	carryOverMaxLen = 120

	defaultSource = "General"

	blockSeparator = "\n---\n"
)

// Non-content markers: the document's title banner and trailing colophon.
const (
	bannerPrefix   = "# "
	colophonPrefix = "*Dataset compiled"
)

var (
	h2Re = regexp.MustCompile(`(?m)^## (.+)$`)
	h3Re = regexp.MustCompile(`(?m)^### (.+)$`)

	// ErrEmptyDocument is returned when the corpus document has no content.
	ErrEmptyDocument = errors.New("corpus document is empty")
)

// Parse splits a markdown knowledge-base document into ordered chunks with
// provenance metadata. Chunks are emitted without embeddings.
//
// The document is split on horizontal-rule lines. The nearest enclosing
// "## " heading is carried forward across blocks as the current source;
// oversized blocks containing several "### " subsections are split further,
// one chunk per subsection. A short heading-less fragment inside such a
// block is treated as preamble and prepended to the following subsection.
// A trailing preamble with no subsection after it is dropped.
func Parse(document string) ([]Chunk, error) {
	if strings.TrimSpace(document) == "" {
		return nil, ErrEmptyDocument
	}

	normalised := strings.ReplaceAll(document, "\r\n", "\n")
	blocks := strings.Split(normalised, blockSeparator)

	var chunks []Chunk
	currentSource := defaultSource

	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" || len(trimmed) < minChunkLen {
			continue
		}
		if strings.HasPrefix(trimmed, bannerPrefix) || strings.HasPrefix(trimmed, colophonPrefix) {
			continue
		}

		if m := h2Re.FindStringSubmatch(trimmed); m != nil {
			currentSource = strings.TrimSpace(m[1])
		}

		parts := splitOnSubheadings(trimmed)
		if len(parts) > 1 && len(trimmed) > splitBlockLen {
			carryOver := ""
			for _, part := range parts {
				p := strings.TrimSpace(part)
				if p == "" {
					continue
				}

				if !h3Re.MatchString(p) && len(p) < carryOverMaxLen {
					// Orphaned intro text: hold it and prepend it to the
					// next subsection rather than emitting it alone.
					if m := h2Re.FindStringSubmatch(p); m != nil {
						currentSource = strings.TrimSpace(m[1])
					}
					carryOver = p + "\n\n"
					continue
				}

				content := carryOver + p
				carryOver = ""
				if len(content) < minChunkLen {
					continue
				}

				section := currentSource
				if m := h3Re.FindStringSubmatch(content); m != nil {
					section = strings.TrimSpace(m[1])
				}
				chunks = append(chunks, newChunk(content, currentSource, section, len(chunks)))
			}
			// A carry-over left dangling here had no subsection to attach
			// to and is dropped.
		} else {
			section := currentSource
			if m := h3Re.FindStringSubmatch(trimmed); m != nil {
				section = strings.TrimSpace(m[1])
			}
			chunks = append(chunks, newChunk(trimmed, currentSource, section, len(chunks)))
		}
	}

	return chunks, nil
}

// splitOnSubheadings splits a block into parts, each starting at a "### "
// heading line. Text before the first heading forms the first part.
func splitOnSubheadings(block string) []string {
	lines := strings.Split(block, "\n")
	var parts []string
	var current []string

	for _, line := range lines {
		if strings.HasPrefix(line, "### ") && len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n"))
	}
	return parts
}

func newChunk(content, source, section string, index int) Chunk {
	return Chunk{
		ID:      fmt.Sprintf("chunk-%d", index),
		Content: content,
		Metadata: ChunkMetadata{
			Source:     source,
			Section:    section,
			ChunkIndex: index,
		},
	}
}
