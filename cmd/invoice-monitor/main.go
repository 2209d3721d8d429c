package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seyi-ajayi/invoice-tracker/internal/archive"
	"github.com/seyi-ajayi/invoice-tracker/internal/common"
	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
	"github.com/seyi-ajayi/invoice-tracker/internal/llm/ollama"
	"github.com/seyi-ajayi/invoice-tracker/internal/pipeline"
	"github.com/seyi-ajayi/invoice-tracker/internal/procstore"
	"github.com/seyi-ajayi/invoice-tracker/internal/sink"
	"github.com/seyi-ajayi/invoice-tracker/internal/watch"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of invoice artifacts (overrides INVOICE_DIR)")
		sinkKind = flag.String("sink", "", "sink kind: xlsx or postgres (overrides SINK_KIND)")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *dir != "" {
		cfg.Pipeline.InvoiceDir = *dir
	}
	if *sinkKind != "" {
		cfg.Sink.Kind = *sinkKind
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// The stop signal is honored between groups only; an in-flight extraction
	// finishes before the run winds down.
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

	store, err := procstore.Open(cfg.Pipeline.ProcessedDBPath, logger)
	if err != nil {
		logger.Error("failed to open processed-id store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("store close error", "error", cerr)
		}
	}()

	extractor := ollama.NewClient(ollama.Config{
		URL:         cfg.LLM.URL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	router := pipeline.NewRouter(extractor, logger)
	processor := pipeline.NewProcessor(router, logger)

	// Seed dedup state from both the sink and the local cache so a restart
	// never re-commits what either side already knows about.
	skipIDs, err := snk.ExistingIDs(ctx)
	if err != nil {
		logger.Error("failed to load existing ids", "error", err)
		os.Exit(1)
	}
	cached, err := store.Load(ctx)
	if err != nil {
		logger.Error("failed to load processed-id cache", "error", err)
		os.Exit(1)
	}
	for id := range cached {
		skipIDs[id] = struct{}{}
	}
	logger.Info("dedup state loaded", "sink_ids", len(skipIDs)-len(cached), "cached_ids", len(cached))

	handle := func(rec *entity.InvoiceRecord, groupKey string, paths []string) error {
		ok, err := snk.Write(ctx, rec)
		if err != nil {
			logger.Error("sink write failed", "group", groupKey, "error", err)
			return nil
		}
		if !ok {
			return nil
		}
		if rec.MailThreadID != "" {
			skipIDs[rec.MailThreadID] = struct{}{}
			if err := store.Add(ctx, rec.MailThreadID); err != nil {
				logger.Warn("failed to persist processed id", "thread_id", rec.MailThreadID, "error", err)
			}
		}
		archive.Move(paths, cfg.Pipeline.ArchiveDir, logger)
		return nil
	}

	runPass := func() {
		if err := processor.ProcessAll(ctx, cfg.Pipeline.InvoiceDir, skipIDs, handle); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("pass failed", "error", err)
		}
	}

	events, err := watch.Start(ctx, watch.Config{
		Root:     cfg.Pipeline.InvoiceDir,
		Debounce: cfg.Pipeline.WatchDebounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("monitor started",
		"dir", cfg.Pipeline.InvoiceDir,
		"interval", cfg.Pipeline.CheckInterval.String(),
	)

	// Initial catch-up pass over whatever is already on disk.
	runPass()

	ticker := time.NewTicker(cfg.Pipeline.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("monitor stopped")
			return
		case _, ok := <-events:
			if !ok {
				logger.Info("monitor stopped")
				return
			}
			runPass()
		case <-ticker.C:
			runPass()
		}
	}
}

func buildSink(ctx context.Context, cfg *common.Config, logger *slog.Logger) (sink.Sink, error) {
	switch cfg.Sink.Kind {
	case "postgres":
		return sink.NewPostgresSink(ctx, cfg.Sink.DSN, logger)
	default:
		return sink.NewXLSXSink(cfg.Sink.XLSXPath, logger)
	}
}
