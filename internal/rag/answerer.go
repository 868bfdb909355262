package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beri-ai/cli/internal/corpus"
	"github.com/beri-ai/cli/internal/faq"
)

// Fixed user-visible messages for the degraded paths. Failures always
// render as a plain assistant message, never as a crash.
const (
	FallbackMessage = "I couldn't find this in the school information. Please check habselstree.org.uk or email admissionsboys@habselstree.org.uk."
	NotFoundMessage = "I couldn't find this in the school information. Please check habselstree.org.uk or email admissionsboys@habselstree.org.uk."
	ApologyMessage  = "Sorry, I encountered an error while generating a response. Please try again."
)

// ErrBusy is returned when a query arrives while another is in flight.
// The stream parser state is not re-entrant, so overlapping generations
// are rejected rather than interleaved.
var ErrBusy = errors.New("a query is already being answered")

// Layer identifies which tier of the pipeline produced an answer.
type Layer string

const (
	LayerFAQ      Layer = "faq"
	LayerDirect   Layer = "direct"
	LayerModel    Layer = "model"
	LayerNotFound Layer = "not_found"
)

// GenerateFunc streams a completion for a prompt, invoking onToken for
// each token in order. thinking selects the model's reasoning mode.
type GenerateFunc func(ctx context.Context, prompt string, thinking bool, onToken func(token string)) error

// Update is an intermediate snapshot pushed to the UI while streaming.
type Update struct {
	Thinking    string
	Answer      string
	InReasoning bool
}

// Result is the finished answer for one query.
type Result struct {
	Answer   string
	Thinking string
	Sources  []corpus.Citation
	Chunks   []ScoredChunk
	Layer    Layer
	Fallback bool
	// Raw keeps the unparsed stream for diagnostics; it is never shown
	// to the user.
	Raw string
}

// AnswererConfig assembles an Answerer.
type AnswererConfig struct {
	FAQ       *faq.Cache
	Retriever *Retriever
	Builder   *ContextBuilder
	Generate  GenerateFunc
	// Thinking enables the model's reasoning mode.
	Thinking bool
	// DirectThreshold is the similarity score above which the top chunk
	// is returned verbatim without generation. Zero disables the tier.
	DirectThreshold float64
	// FlushInterval throttles intermediate updates. The final update is
	// always delivered regardless.
	FlushInterval time.Duration
}

// Answerer runs the tiered answering pipeline: FAQ cache, retrieval,
// direct chunk answer, streamed generation, garbage fallback.
type Answerer struct {
	faq             *faq.Cache
	retriever       *Retriever
	builder         *ContextBuilder
	generate        GenerateFunc
	thinking        bool
	directThreshold float64
	flushInterval   time.Duration

	busy atomic.Bool
}

// NewAnswerer creates an answer orchestrator.
func NewAnswerer(cfg AnswererConfig) *Answerer {
	flush := cfg.FlushInterval
	if flush < 0 {
		flush = 0
	}
	return &Answerer{
		faq:             cfg.FAQ,
		retriever:       cfg.Retriever,
		builder:         cfg.Builder,
		generate:        cfg.Generate,
		thinking:        cfg.Thinking,
		directThreshold: cfg.DirectThreshold,
		flushInterval:   flush,
	}
}

// Answer resolves one query through the tiered pipeline. Intermediate
// streaming state is pushed through onUpdate (which may be nil); the
// returned Result is the final message. Only one call may be in flight at
// a time; concurrent calls fail with ErrBusy.
func (a *Answerer) Answer(ctx context.Context, query string, onUpdate func(Update)) (*Result, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.busy.Store(false)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	// Tier 1: FAQ cache. A hit bypasses retrieval and generation.
	if hit := a.faq.Lookup(query); hit != nil {
		return &Result{Answer: hit.Answer, Sources: hit.Sources, Layer: LayerFAQ}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Nothing cleared the threshold: answer "not found" without burning
	// a generation on an empty context.
	if len(chunks) == 0 {
		return &Result{Answer: NotFoundMessage, Layer: LayerNotFound}, nil
	}

	sources := ExtractSources(chunks)

	// Tier 2: a very confident top chunk is served verbatim.
	if a.directThreshold > 0 && chunks[0].Score >= a.directThreshold {
		return &Result{
			Answer:  directAnswer(chunks[0]),
			Sources: sources,
			Chunks:  chunks,
			Layer:   LayerDirect,
		}, nil
	}

	// Tier 3: streamed generation through the reasoning parser.
	prompt := a.builder.BuildPrompt(a.builder.BuildContext(chunks), query)

	var state StreamState
	var lastFlush time.Time
	genErr := a.generate(ctx, prompt, a.thinking, func(token string) {
		if ctx.Err() != nil {
			// Cancelled mid-stream: late tokens still arrive, state must
			// not propagate any further.
			return
		}
		state = state.Next(token)
		if onUpdate != nil && time.Since(lastFlush) >= a.flushInterval {
			lastFlush = time.Now()
			onUpdate(Update{Thinking: state.Thinking, Answer: state.Answer, InReasoning: state.InReasoning})
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if genErr != nil {
		return &Result{Answer: ApologyMessage, Layer: LayerModel, Fallback: true}, nil
	}

	// Tier 4: garbage gate. The thinking trace is dropped from the
	// user-visible result on fallback but survives in Raw.
	result := &Result{
		Answer:   state.Answer,
		Thinking: state.Thinking,
		Sources:  sources,
		Chunks:   chunks,
		Layer:    LayerModel,
		Raw:      state.Raw,
	}
	if IsGarbage(state.Answer) {
		result.Answer = FallbackMessage
		result.Thinking = ""
		result.Fallback = true
	}

	// Final state always flushes synchronously, throttling aside.
	if onUpdate != nil {
		onUpdate(Update{Thinking: result.Thinking, Answer: result.Answer})
	}

	return result, nil
}

// directAnswer turns the top chunk into a displayable answer: heading
// markup stripped, provenance appended in the same style as the FAQ
// answers.
func directAnswer(chunk ScoredChunk) string {
	var lines []string
	for _, line := range strings.Split(chunk.Content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	body := strings.TrimSpace(strings.Join(lines, "\n"))
	return fmt.Sprintf("%s\n\nSource: %s — %s", body, chunk.Metadata.Source, chunk.Metadata.Section)
}
