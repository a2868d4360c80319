package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/yegors/vidscribe/internal/api"
	"github.com/yegors/vidscribe/internal/config"
	"github.com/yegors/vidscribe/internal/session"
	"github.com/yegors/vidscribe/internal/transcription"
	"github.com/yegors/vidscribe/internal/upload"
	"github.com/yegors/vidscribe/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintf(os.Stderr, "vidscribe: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	apiKey, source, err := cfg.Transcription.ResolveAPIKey()
	if err != nil {
		log.Warn("Failed to read API key from keyring", logger.Error(err))
	}
	if apiKey == "" {
		log.Warn("No API key configured; transcription requests will fail",
			logger.String("env", cfg.Transcription.APIKeyEnv),
			logger.String("keyring_service", cfg.Transcription.KeyringService))
	} else {
		log.Info("API key loaded", logger.String("source", string(source)))
	}

	var prompt string
	if cfg.Transcription.PromptPath != "" {
		if prompt, err = transcription.LoadPrompt(cfg.Transcription.PromptPath); err != nil {
			return err
		}
	}

	transcriber, err := transcription.New(transcription.Config{
		Provider:   cfg.Transcription.Provider,
		APIKey:     apiKey,
		Model:      cfg.Transcription.Model,
		APIBaseURL: cfg.Transcription.APIBaseURL,
		PromptPath: cfg.Transcription.PromptPath,
		Prompt:     prompt,
		Timeout:    cfg.Transcription.Timeout(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	sess, err := session.New(transcriber,
		upload.NewValidator(cfg.Upload.AllowedTypes, cfg.Upload.MaxSizeBytes()),
		session.Options{
			Phases:  cfg.Processing.Phases(),
			Timeout: cfg.Transcription.Timeout(),
		}, log)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	server := &http.Server{
		Handler: api.NewRouter(sess, cfg, log).Routes(),
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}
	if cfg.Server.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server",
			logger.String("addr", ln.Addr().String()),
			logger.String("provider", cfg.Transcription.Provider),
			logger.String("model", cfg.Transcription.Model))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		// Restore default signal handling so a second interrupt kills the process
		stop()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	})

	err = g.Wait()

	// An in-flight run is detached from requests; give it the shutdown budget to finish
	if !sess.WaitTimeout(cfg.Server.ShutdownTimeout()) {
		log.Warn("Abandoning in-flight transcription",
			logger.String("job_id", sess.Machine().Snapshot().JobID),
			logger.Duration("waited", cfg.Server.ShutdownTimeout()))
	}
	log.Info("Stopped")
	return err
}
