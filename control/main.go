package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Strum355/log"

	"github.com/sv4u/audiodl/control/handlers"
	"github.com/sv4u/audiodl/download"
	"github.com/sv4u/audiodl/download/audio"
	"github.com/sv4u/audiodl/download/config"
	"github.com/sv4u/audiodl/download/credentials"
	"github.com/sv4u/audiodl/download/deezer"
	"github.com/sv4u/audiodl/download/logging"
	"github.com/sv4u/audiodl/download/metadata"
	"github.com/sv4u/audiodl/download/workspace"
)

var (
	// Version is set at build time via ldflags
	// Example: go build -ldflags="-X main.Version=v1.2.3"
	Version = "dev"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitConfigError = 3
)

// shutdownGrace bounds how long in-flight downloads may finish after a signal.
const shutdownGrace = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return ExitUsage
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "audiodl version %s\n", Version)
		return ExitOK
	case "serve":
		return serveCommand(args[1:], stderr)
	case "inspect":
		return inspectCommand(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return ExitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `audiodl - HTTP service that turns media URLs into tagged mp3 files

USAGE:
    audiodl <command> [flags]

COMMANDS:
    serve           Start the HTTP server
    inspect <file>  Print the tags of an mp3 file as JSON
    version         Show version information

SERVE FLAGS:
    --config path   Optional YAML configuration file
    --port n        Override server.port

ENVIRONMENT:
    AUDIODL_<SECTION>_<KEY>  Override any configuration key
    PORT                     Listening port (platform convention)
    COOKIES_TXT_VAR          Netscape cookie file content for yt-dlp

EXAMPLES:
    audiodl serve
    audiodl serve --config config.yaml --port 9000
    audiodl inspect song.mp3
`)
}

func serveCommand(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file")
	port := fs.Int("port", 0, "HTTP server port (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	logging.Init(logging.FormatJSON, os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return ExitConfigError
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	format, err := logging.ParseFormat(cfg.Server.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return ExitConfigError
	}
	logging.Init(format, os.Stdout)

	server, err := buildServer(cfg)
	if err != nil {
		log.WithError(err).Error("server_init_failed")
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.WithContext(logging.WithFields(ctx, log.Fields{"version": Version})).Info("server_starting")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown_failed")
			return ExitError
		}
		log.Info("server_stopped")
		return ExitOK
	case err := <-errChan:
		log.WithError(err).Error("server_failed")
		return ExitError
	}
}

// buildServer wires the pipeline from configuration.
func buildServer(cfg *config.Config) (*Server, error) {
	workspaces, err := workspace.NewManager(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	removed, err := workspaces.Sweep(cfg.Workspace.StaleAfter)
	if err != nil {
		log.WithError(err).Error("workspace_sweep_failed")
	} else if removed > 0 {
		log.WithContext(logging.WithFields(context.Background(), log.Fields{"removed": removed})).Info("workspace_sweep_complete")
	}

	provider := audio.NewProvider(&audio.Config{
		Binary:       cfg.Extract.Binary,
		AudioQuality: cfg.Extract.AudioQuality,
	})
	if err := provider.CheckBinary(); err != nil {
		log.WithError(err).Error("extractor_unavailable")
	}

	creds := credentials.FromEnv(cfg.Cookies.EnvVar, cfg.Cookies.Required)
	if cfg.Cookies.Required && !creds.Configured() {
		log.WithContext(logging.WithFields(context.Background(), log.Fields{"env_var": cfg.Cookies.EnvVar})).Error("cookies_missing")
	}

	var lookup download.MetadataLookup
	if cfg.Lookup.IsEnabled() {
		lookup = deezer.NewClient(&deezer.Config{
			Endpoint:      cfg.Lookup.Endpoint,
			Term:          cfg.Lookup.Term,
			Timeout:       cfg.Lookup.Timeout,
			RatePerSecond: cfg.Lookup.RatePerSecond,
		})
	}

	svc, err := download.NewService(
		&download.Config{
			Timeout:       cfg.Extract.Timeout,
			MaxConcurrent: int64(cfg.Extract.MaxConcurrent),
		},
		workspaces,
		creds,
		provider,
		lookup,
		metadata.NewEmbedder(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create download service: %w", err)
	}

	h, err := handlers.NewHandlers(svc, time.Now(), Version, cfg.Digest())
	if err != nil {
		return nil, fmt.Errorf("failed to create handlers: %w", err)
	}

	return NewServer(&ServerConfig{
		Port:           cfg.Server.Port,
		ExtractTimeout: cfg.Extract.Timeout,
	}, h), nil
}

func inspectCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: audiodl inspect <file.mp3>")
		return ExitUsage
	}

	tags, err := metadata.ReadTags(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read tags: %v\n", err)
		return ExitError
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tags); err != nil {
		fmt.Fprintf(stderr, "Failed to encode tags: %v\n", err)
		return ExitError
	}
	return ExitOK
}
