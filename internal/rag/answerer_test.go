package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beri-ai/cli/internal/corpus"
	"github.com/beri-ai/cli/internal/faq"
)

func tokenGenerator(tokens ...string) GenerateFunc {
	return func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
		for _, tok := range tokens {
			onToken(tok)
		}
		return nil
	}
}

func newTestAnswerer(t *testing.T, cfg AnswererConfig) *Answerer {
	t.Helper()
	if cfg.FAQ == nil {
		cfg.FAQ = faq.New(nil)
	}
	if cfg.Builder == nil {
		cfg.Builder = NewContextBuilder(0)
	}
	if cfg.Retriever == nil {
		source := &memSource{chunks: []corpus.Chunk{
			func() corpus.Chunk {
				c := testChunk(0, "Fees", "Tuition", []float32{1, 0, 0})
				c.Content = "### Tuition\n\nSenior school tuition is £10,423 per term including VAT, books and insurance."
				return c
			}(),
		}}
		embedder := &vecEmbedder{vectors: map[string][]float32{
			"what are the fees": {0.9, 0.1, 0},
		}}
		cfg.Retriever = NewRetriever(source, embedder, 3, 0.25)
	}
	return NewAnswerer(cfg)
}

func TestAnswerFAQShortCircuits(t *testing.T) {
	cache := faq.New([]faq.Entry{{
		Primary:    []string{"sport"},
		Supporting: []string{"available"},
		Answer:     "Sport answer",
		Sources:    []corpus.Citation{{Source: "Sport and Co-Curricular", Section: "Sport Overview"}},
	}})

	generated := false
	a := newTestAnswerer(t, AnswererConfig{
		FAQ: cache,
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			generated = true
			return nil
		},
	})

	res, err := a.Answer(context.Background(), "what sports are available", nil)
	require.NoError(t, err)
	assert.Equal(t, LayerFAQ, res.Layer)
	assert.Equal(t, "Sport answer", res.Answer)
	assert.False(t, generated, "an FAQ hit must not reach the model")
}

func TestAnswerRetrievesAndStreams(t *testing.T) {
	a := newTestAnswerer(t, AnswererConfig{
		Generate: tokenGenerator("<think>", "checking the fee table", "</think>", "Fees are ", "£10,423 per term."),
	})

	var updates []Update
	res, err := a.Answer(context.Background(), "what are the fees", func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.Equal(t, LayerModel, res.Layer)
	assert.Equal(t, "Fees are £10,423 per term.", res.Answer)
	assert.Equal(t, "checking the fee table", res.Thinking)
	assert.Equal(t, []corpus.Citation{{Source: "Fees", Section: "Tuition"}}, res.Sources)
	assert.False(t, res.Fallback)

	require.NotEmpty(t, updates)
	final := updates[len(updates)-1]
	assert.Equal(t, res.Answer, final.Answer, "final state is always flushed")
}

func TestAnswerGarbageFallback(t *testing.T) {
	a := newTestAnswerer(t, AnswererConfig{
		Generate: tokenGenerator("<think>", "hmm", "</think>", strings.Repeat("a", 500)),
	})

	res, err := a.Answer(context.Background(), "what are the fees", nil)
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackMessage, res.Answer)
	assert.Empty(t, res.Thinking, "thinking is hidden from a fallback result")
	assert.Contains(t, res.Raw, "hmm", "the raw stream survives for diagnostics")
}

func TestAnswerGenerationErrorBecomesApology(t *testing.T) {
	a := newTestAnswerer(t, AnswererConfig{
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			return fmt.Errorf("model crashed")
		},
	})

	res, err := a.Answer(context.Background(), "what are the fees", nil)
	require.NoError(t, err, "a model failure is converted, not surfaced")
	assert.Equal(t, ApologyMessage, res.Answer)
	assert.True(t, res.Fallback)
}

func TestAnswerNotFoundShortcut(t *testing.T) {
	source := &memSource{chunks: []corpus.Chunk{
		testChunk(0, "Fees", "Tuition", []float32{0, 1, 0}),
	}}
	embedder := &vecEmbedder{vectors: map[string][]float32{
		"unrelated question": {1, 0, 0},
	}}

	generated := false
	a := newTestAnswerer(t, AnswererConfig{
		Retriever: NewRetriever(source, embedder, 3, 0.25),
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			generated = true
			return nil
		},
	})

	res, err := a.Answer(context.Background(), "unrelated question", nil)
	require.NoError(t, err)
	assert.Equal(t, LayerNotFound, res.Layer)
	assert.Equal(t, NotFoundMessage, res.Answer)
	assert.False(t, generated)
}

func TestAnswerDirectTier(t *testing.T) {
	generated := false
	a := newTestAnswerer(t, AnswererConfig{
		DirectThreshold: 0.8,
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			generated = true
			return nil
		},
	})

	res, err := a.Answer(context.Background(), "what are the fees", nil)
	require.NoError(t, err)
	assert.Equal(t, LayerDirect, res.Layer)
	assert.Contains(t, res.Answer, "£10,423")
	assert.NotContains(t, res.Answer, "###", "heading markup is stripped")
	assert.Contains(t, res.Answer, "Source: Fees — Tuition")
	assert.False(t, generated)
}

func TestAnswerRejectsOverlappingQueries(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	a := newTestAnswerer(t, AnswererConfig{
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			close(started)
			<-release
			onToken("done")
			return nil
		},
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := a.Answer(context.Background(), "what are the fees", nil)
		errCh <- err
	}()

	<-started
	_, err := a.Answer(context.Background(), "what are the fees", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-errCh)
}

func TestAnswerCancellationSuppressesUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var updates int
	a := newTestAnswerer(t, AnswererConfig{
		Generate: func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
			onToken("first ")
			cancel()
			// Tokens already in flight keep arriving after cancellation.
			onToken("late ")
			onToken("tokens")
			return nil
		},
	})

	_, err := a.Answer(ctx, "what are the fees", func(u Update) {
		updates++
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, updates, 1, "no updates after cancellation")
}

func TestAnswerThrottledFlushing(t *testing.T) {
	a := newTestAnswerer(t, AnswererConfig{
		FlushInterval: time.Hour, // only the final flush can fire
		Generate:      tokenGenerator("to", "ken", " by", " token", " answer that is streamed"),
	})

	var updates []Update
	res, err := a.Answer(context.Background(), "what are the fees", func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	require.Len(t, updates, 2, "first token flush plus the final flush")
	assert.Equal(t, res.Answer, updates[len(updates)-1].Answer)
}

func TestAnswerEmptyQuery(t *testing.T) {
	a := newTestAnswerer(t, AnswererConfig{Generate: tokenGenerator("x")})
	_, err := a.Answer(context.Background(), "   ", nil)
	assert.Error(t, err)
}
