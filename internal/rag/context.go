package rag

import (
	"fmt"
	"strings"
)

// SystemPrompt grounds the model in the retrieved context only.
const SystemPrompt = `You are BERI (Bespoke Education Retrieval Infrastructure), a helpful assistant for Haberdashers' Boys' School (Habs Boys).

Your role is to answer questions about the school using ONLY the provided context. You must:

1. Answer based solely on the information provided in the context
2. Cite sources by mentioning the source and section (e.g. "Source: Admissions — 11+ Year 7 Entry")
3. If the answer is not in the provided context, say "I couldn't find this in the school information. Please check habselstree.org.uk or email admissionsboys@habselstree.org.uk."
4. Use clear, accessible language appropriate for prospective parents and students
5. Be concise — use bullet points for lists, keep answers focused
6. Never make up or assume information that isn't in the context
7. Use UK British spelling and grammar
8. Include specific numbers, dates, and figures when they appear in the context
9. Don't answer questions unrelated to the school

Remember: Only use the provided context. Do not invent facts.`

// ContextBuilder formats retrieved chunks into the prompt sent to the
// generation model.
type ContextBuilder struct {
	maxChars int
}

// NewContextBuilder creates a context builder. maxChars bounds the
// formatted context so it fits the model's context window.
func NewContextBuilder(maxChars int) *ContextBuilder {
	if maxChars <= 0 {
		maxChars = 6000
	}
	return &ContextBuilder{maxChars: maxChars}
}

// BuildContext creates a formatted context block from retrieved chunks,
// labelling each excerpt with its provenance.
func (cb *ContextBuilder) BuildContext(chunks []ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var parts []string
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[Excerpt %d — %s / %s]", i+1, chunk.Metadata.Source, chunk.Metadata.Section))
		parts = append(parts, chunk.Content)
		parts = append(parts, "")
	}

	context := strings.Join(parts, "\n")
	if len(context) > cb.maxChars {
		context = context[:cb.maxChars] + "\n\n[Context truncated...]"
	}
	return context
}

// BuildPrompt creates the complete prompt from the system prompt, the
// formatted context, and the user's question.
func (cb *ContextBuilder) BuildPrompt(context, query string) string {
	var parts []string

	parts = append(parts, SystemPrompt)
	parts = append(parts, "")

	if context != "" {
		parts = append(parts, "## School Information Context:")
		parts = append(parts, context)
		parts = append(parts, "")
	}

	parts = append(parts, "## Question:")
	parts = append(parts, query)

	return strings.Join(parts, "\n")
}
