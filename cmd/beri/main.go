package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/beri-ai/cli/config"
	"github.com/beri-ai/cli/internal/app"
	"github.com/beri-ai/cli/internal/tui"
)

func main() {
	var (
		askFlag     = flag.String("ask", "", "Ask a single question and exit")
		reindexFlag = flag.Bool("reindex", false, "Rebuild the knowledge base index")
	)
	flag.Parse()

	// .env is optional; environment overrides still apply without it.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *reindexFlag {
		if err := reindex(a); err != nil {
			fmt.Fprintf(os.Stderr, "Error rebuilding index: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Index rebuilt successfully")
		return
	}

	if *askFlag != "" {
		if err := askOnce(a, *askFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := tui.Run(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// reindex drops and rebuilds the chunk index, reporting progress on stderr.
func reindex(a *app.App) error {
	ctx, cancel := interruptContext()
	defer cancel()

	return a.Reindex(ctx, func(p app.Progress) {
		fmt.Fprintf(os.Stderr, "\r%s (%d%%)", p.Message, p.Percent)
		if p.Percent >= 100 {
			fmt.Fprintln(os.Stderr)
		}
	})
}

// askOnce runs the full pipeline for a single question and prints the
// answer with its sources.
func askOnce(a *app.App, question string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	err := a.Initialise(ctx, func(p app.Progress) {
		fmt.Fprintf(os.Stderr, "\r%-50s", fmt.Sprintf("%s (%d%%)", p.Message, p.Percent))
	})
	fmt.Fprintf(os.Stderr, "\r%-50s\r", "")
	if err != nil {
		return err
	}

	result, err := a.Answerer().Answer(ctx, question, nil)
	if err != nil {
		return err
	}

	if result.Thinking != "" {
		fmt.Fprintf(os.Stderr, "Thinking: %s\n\n", result.Thinking)
	}
	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  - %s — %s\n", s.Source, s.Section)
		}
	}
	return nil
}
