// Package main is the Manabu CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/remote"
	"github.com/hyperjump/manabu/internal/research"
	"github.com/hyperjump/manabu/internal/server"
	"github.com/hyperjump/manabu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/manabu/config.yaml"

// loadConfig loads config from path. When path is the default and config.yaml exists in the
// current directory, that file is used instead so "manabu server" works from a checkout.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "backend":
		runBackend()
	case "research":
		os.Exit(runResearch(os.Args[2:]))
	case "ingest":
		os.Exit(runIngest(os.Args[2:]))
	case "version", "--version", "-v":
		fmt.Printf("manabu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// mustLoad parses the shared server flags and returns config and logger, exiting on failure.
func mustLoad(name string) (*config.Config, *zap.Logger) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger
}

// researchDependencies wires the research pipeline to the configured remote services.
func researchDependencies(cfg *config.Config, logger *zap.Logger) research.Dependencies {
	services := remote.NewServices(cfg.Services)
	return research.Dependencies{
		Decompose: services.Decompose,
		Content:   services.Content,
		Videos:    services.Videos,
		Logger:    logger,
	}
}

func runServer() {
	cfg, logger := mustLoad("server")
	defer logger.Sync()

	srv := server.NewServer(researchDependencies(cfg, logger), cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func printUsage() {
	fmt.Println(`manabu - Learning resource research over your library and YouTube

Usage:
  manabu server [flags]              Start the research web UI
  manabu backend [flags]             Start the backend services (sub-topics, library search, videos)
  manabu research [flags] <topic>    Research a topic from the terminal
  manabu ingest [flags] <file|dir>.. Add watch-history files to the library (backend stopped)
  manabu version                     Show version
  manabu help                        Show this help

Server/Backend Flags:
  --config string    Config file path (default: /usr/local/etc/manabu/config.yaml)
  --debug            Enable debug logging

Research Flags:
  --config string    Config file path
  --format string    Output format: text or json (default: text)
  --plain            Disable terminal styling
  --debug            Log pipeline progress to stderr

Ingest Flags:
  --config string    Config file path

Examples:
  manabu backend
  manabu server
  manabu research go concurrency
  manabu research --format json "rust ownership"
  manabu ingest ~/Downloads/watch-history.html`)
}
