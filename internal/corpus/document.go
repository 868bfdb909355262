package corpus

import (
	"fmt"
	"os"

	_ "embed"
)

// The knowledge base ships inside the binary so the app works with no
// network and no external files.
//
//go:embed about-habs.md
var embeddedDocument string

// DefaultDocument returns the embedded school knowledge-base document.
func DefaultDocument() string {
	return embeddedDocument
}

// LoadDocument reads a corpus document from disk, falling back to the
// embedded document when path is empty. A missing or unreadable file is a
// fatal precondition failure for the whole pipeline.
func LoadDocument(path string) (string, error) {
	if path == "" {
		return embeddedDocument, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus document: %w", err)
	}
	return string(data), nil
}
