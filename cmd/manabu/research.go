package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/cli"
	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/indexer"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/render"
	"github.com/hyperjump/manabu/internal/research"
	"github.com/hyperjump/manabu/pkg/utils"
)

type researchOptions struct {
	Format cli.OutputFormat
	Plain  bool
}

// researchTopic runs one topic through the pipeline and streams blocks to w as they settle.
func researchTopic(ctx context.Context, deps research.Dependencies, cfg *config.Config, opts researchOptions, topic string, w io.Writer) (research.Summary, error) {
	runID := uuid.NewString()
	renderer := cli.NewRenderer(opts.Format, runID, opts.Plain)
	controller := research.New(deps, renderer, render.NewWriterSink(w), cfg.Research.RenderMode)
	summary, err := controller.SubmitRun(ctx, runID, topic)
	if err != nil {
		return summary, err
	}
	return summary, cli.WriteSummary(w, renderer, summary)
}

func runResearch(args []string) int {
	fs := flag.NewFlagSet("research", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	format := fs.String("format", string(cli.OutputText), "output format: text or json")
	plain := fs.Bool("plain", false, "disable terminal styling")
	debug := fs.Bool("debug", false, "log pipeline progress to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: manabu research [flags] <topic>\n\n")
		fmt.Fprintf(fs.Output(), "Topic is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(cli.ArgsReorder(args)); err != nil {
		return exitUsage
	}

	topic := cli.BuildTopic(fs.Args())
	if topic == "" {
		fs.Usage()
		return exitUsage
	}
	outFormat, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := researchOptions{Format: outFormat, Plain: *plain}
	summary, err := researchTopic(ctx, researchDependencies(cfg, logger), cfg, opts, topic, os.Stdout)
	code := researchExitCode(ctx, err)
	switch code {
	case exitUsage:
		fmt.Fprintln(os.Stderr, "Please enter a topic.")
	case exitFailure:
		logger.Error("research failed", zap.String("run_id", summary.RunID), zap.Error(err))
	}
	return code
}

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// researchExitCode maps the outcome of a run to a process exit code. An interrupted run is
// reported as such even though the pipeline returns the context error.
func researchExitCode(ctx context.Context, err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyTopic):
		return exitUsage
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return exitInterrupted
	case err != nil:
		return exitFailure
	}
	return exitOK
}

// ingestFiles adds each watch-history file, or every supported file under a directory, to the
// library. Returns the number of files ingested.
func ingestFiles(ctx context.Context, idx *indexer.Indexer, paths []string, exts []string, w io.Writer) (int, error) {
	files := 0
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return files, err
		}
		if info.IsDir() {
			n, err := idx.IndexDirectory(ctx, path, exts)
			files += n
			if err != nil {
				return files, fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(w, "%s: %d files\n", path, n)
			continue
		}
		n, err := idx.IndexFile(ctx, path, exts)
		if err != nil {
			return files, fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(w, "%s: %d videos\n", path, n)
		files++
	}
	return files, nil
}

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(cli.ArgsReorder(args)); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: manabu ingest [flags] <file|dir>...")
		return exitUsage
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open library: %v\n", err)
		return exitFailure
	}
	defer components.Close()

	idx := components.Indexer
	total, err := ingestFiles(ctx, idx, fs.Args(), cfg.Watch.Extensions, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return exitFailure
	}
	fmt.Printf("Ingested %d files\n", total)
	return exitOK
}
