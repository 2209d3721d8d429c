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

	"github.com/seyi-ajayi/invoice-tracker/internal/archive"
	"github.com/seyi-ajayi/invoice-tracker/internal/common"
	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
	"github.com/seyi-ajayi/invoice-tracker/internal/llm"
	"github.com/seyi-ajayi/invoice-tracker/internal/llm/ollama"
	"github.com/seyi-ajayi/invoice-tracker/internal/pipeline"
	"github.com/seyi-ajayi/invoice-tracker/internal/sink"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of invoice artifacts (overrides INVOICE_DIR)")
		out      = flag.String("out", "", "XLSX workbook path (overrides XLSX_PATH)")
		sinkKind = flag.String("sink", "", "sink kind: xlsx or postgres (overrides SINK_KIND)")
		noLLM    = flag.Bool("no-llm", false, "skip the model-assisted extractor for unknown senders")
	)
	flag.Parse()

	// .env is optional; environment variables win.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *dir != "" {
		cfg.Pipeline.InvoiceDir = *dir
	}
	if *out != "" {
		cfg.Sink.XLSXPath = *out
	}
	if *sinkKind != "" {
		cfg.Sink.Kind = *sinkKind
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snk, err := buildSink(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sink", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := snk.Close(); cerr != nil {
			logger.Warn("sink close error", "error", cerr)
		}
	}()

	var extractor *ollama.Client
	if !*noLLM {
		extractor = ollama.NewClient(ollama.Config{
			URL:         cfg.LLM.URL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		logger.Info("extractor initialized", "model", cfg.LLM.Model, "url", cfg.LLM.URL)
	} else {
		logger.Warn("model-assisted extraction disabled; unknown senders will be skipped")
	}

	router := pipeline.NewRouter(extractorOrNil(extractor), logger)
	processor := pipeline.NewProcessor(router, logger)

	skipIDs, err := snk.ExistingIDs(ctx)
	if err != nil {
		logger.Error("failed to load existing ids", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded existing ids", "count", len(skipIDs))

	saved := 0
	skippedDuplicates := 0
	handle := func(rec *entity.InvoiceRecord, groupKey string, paths []string) error {
		ok, err := snk.Write(ctx, rec)
		if err != nil {
			// Leave the files in place; this group is retried on a future pass.
			logger.Error("sink write failed", "group", groupKey, "error", err)
			return nil
		}
		if !ok {
			skippedDuplicates++
			return nil
		}
		if rec.MailThreadID != "" {
			skipIDs[rec.MailThreadID] = struct{}{}
		}
		archive.Move(paths, cfg.Pipeline.ArchiveDir, logger)
		saved++
		return nil
	}

	logger.Info("starting backfill", "dir", cfg.Pipeline.InvoiceDir)
	if err := processor.ProcessAll(ctx, cfg.Pipeline.InvoiceDir, skipIDs, handle); err != nil {
		logger.Error("backfill aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("backfill complete", "saved", saved, "duplicates", skippedDuplicates)
	fmt.Printf("Backfill complete!\n")
	fmt.Printf("- Invoices saved: %d\n", saved)
	fmt.Printf("- Duplicates skipped: %d\n", skippedDuplicates)
}

func buildSink(ctx context.Context, cfg *common.Config, logger *slog.Logger) (sink.Sink, error) {
	switch cfg.Sink.Kind {
	case "postgres":
		return sink.NewPostgresSink(ctx, cfg.Sink.DSN, logger)
	default:
		return sink.NewXLSXSink(cfg.Sink.XLSXPath, logger)
	}
}

// extractorOrNil keeps a typed-nil *ollama.Client out of the llm.Extractor
// interface value.
func extractorOrNil(c *ollama.Client) llm.Extractor {
	if c == nil {
		return nil
	}
	return c
}
