// Package app wires the pipeline together and owns the start-up sequence:
// capability probe, chunk store population, model selection.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beri-ai/cli/config"
	"github.com/beri-ai/cli/internal/corpus"
	"github.com/beri-ai/cli/internal/device"
	"github.com/beri-ai/cli/internal/embeddings"
	"github.com/beri-ai/cli/internal/faq"
	"github.com/beri-ai/cli/internal/ollama"
	"github.com/beri-ai/cli/internal/rag"
	"github.com/beri-ai/cli/internal/store"
)

// Stage identifies a phase of the start-up sequence.
type Stage string

const (
	StageProbe   Stage = "probe"
	StageStorage Stage = "storage"
	StageChunks  Stage = "chunks"
	StageModel   Stage = "model"
	StageReady   Stage = "ready"
)

// Progress reports start-up progress. Percent is monotonically
// non-decreasing across the whole sequence.
type Progress struct {
	Stage   Stage
	Percent int
	Message string
}

// flushInterval is the cadence at which streaming updates reach the UI.
const flushInterval = 80 * time.Millisecond

// App assembles the answering pipeline.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	embedder *embeddings.TextEmbedder
	client   *ollama.Client
	selector *ollama.ModelSelector

	deviceInfo device.Info
	model      string
	answerer   *rag.Answerer
}

// New creates the application. Long-running set-up happens later in
// Initialise so a UI can show progress.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}

	client := ollama.NewClient(cfg.Ollama.BaseURL)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		embedder: embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Embeddings.TextModel),
		client:   client,
		selector: ollama.NewModelSelector(client),
	}, nil
}

// Close releases the chunk store.
func (a *App) Close() error {
	return a.store.Close()
}

// Device returns the capability probe result. Valid after Initialise.
func (a *App) Device() device.Info {
	return a.deviceInfo
}

// Model returns the selected generation model. Valid after Initialise.
func (a *App) Model() string {
	return a.model
}

// Answerer returns the answer orchestrator. Valid after Initialise.
func (a *App) Answerer() *rag.Answerer {
	return a.answerer
}

// Initialise runs the start-up sequence: probe the device, populate the
// chunk store if needed (the only place embeddings are computed), select
// a generation model, and build the orchestrator. Progress is reported
// through onProgress; cancellation is honoured between steps.
func (a *App) Initialise(ctx context.Context, onProgress func(Progress)) error {
	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	report(Progress{Stage: StageProbe, Percent: 5, Message: "Checking device capability..."})
	a.deviceInfo = device.Detect()
	if a.deviceInfo.Tier == device.TierBlocked {
		return fmt.Errorf("this device has %d GB RAM, below the minimum needed to run a local model", a.deviceInfo.RAMGB)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	report(Progress{Stage: StageStorage, Percent: 10, Message: "Preparing knowledge base..."})
	document, err := corpus.LoadDocument(a.cfg.Paths.CorpusFile)
	if err != nil {
		return err
	}

	err = a.store.LoadAll(ctx, document, a.embedder.Embed, func(current, total int) {
		pct := 15 + current*55/total // 15-70%
		report(Progress{
			Stage:   StageChunks,
			Percent: pct,
			Message: fmt.Sprintf("Embedding content %d/%d...", current, total),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to build knowledge base index: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	report(Progress{Stage: StageModel, Percent: 75, Message: "Selecting language model..."})
	model, err := a.selector.GetDefaultModel(ctx, a.cfg.Ollama.DefaultModel)
	if err != nil {
		return fmt.Errorf("failed to select a model: %w", err)
	}
	a.model = model

	if err := ctx.Err(); err != nil {
		return err
	}

	a.answerer = rag.NewAnswerer(rag.AnswererConfig{
		FAQ:             faq.Default(),
		Retriever:       rag.NewRetriever(a.store, a.embedder, a.cfg.Retrieval.TopK, a.cfg.Retrieval.Threshold),
		Builder:         rag.NewContextBuilder(0),
		Generate:        a.generateFunc(),
		Thinking:        a.thinkingEnabled(),
		DirectThreshold: a.cfg.Retrieval.DirectThreshold,
		FlushInterval:   flushInterval,
	})

	a.logger.Info("initialised",
		"model", a.model,
		"tier", string(a.deviceInfo.Tier),
		"thinking", a.thinkingEnabled(),
		"embedding_dim", a.embedder.Dimension(),
		"store", a.store.Path(),
	)

	report(Progress{Stage: StageReady, Percent: 100, Message: "Ready to chat!"})
	return nil
}

// Reindex drops and rebuilds the chunk index.
func (a *App) Reindex(ctx context.Context, onProgress func(Progress)) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	document, err := corpus.LoadDocument(a.cfg.Paths.CorpusFile)
	if err != nil {
		return err
	}
	return a.store.LoadAll(ctx, document, a.embedder.Embed, func(current, total int) {
		if onProgress != nil {
			onProgress(Progress{
				Stage:   StageChunks,
				Percent: current * 100 / total,
				Message: fmt.Sprintf("Embedding content %d/%d...", current, total),
			})
		}
	})
}

func (a *App) thinkingEnabled() bool {
	switch a.cfg.Generation.Thinking {
	case "on":
		return true
	case "off":
		return false
	default:
		return a.deviceInfo.ThinkingEnabled
	}
}

// generateFunc adapts the Ollama client to the orchestrator's streaming
// contract.
func (a *App) generateFunc() rag.GenerateFunc {
	return func(ctx context.Context, prompt string, thinking bool, onToken func(string)) error {
		if !thinking {
			// Soft switch understood by qwen3-family models; harmless
			// elsewhere.
			prompt += "\n/no_think"
		}
		req := &ollama.GenerateRequest{
			Model:  a.model,
			Prompt: prompt,
			Options: map[string]any{
				"temperature": a.cfg.Generation.Temperature,
				"num_predict": a.cfg.Generation.MaxTokens,
			},
		}
		return a.client.GenerateStream(ctx, req, onToken)
	}
}
