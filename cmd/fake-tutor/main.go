// ABOUTME: Development stand-in for the remote chat service
// ABOUTME: Serves the chat routes from a seeded SQLite knowledge base

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389/tutor-chat/internal/auth"
	"github.com/2389/tutor-chat/internal/config"
	"github.com/2389/tutor-chat/internal/devapi"
	"github.com/2389/tutor-chat/internal/knowledge"
	"github.com/2389/tutor-chat/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	addr := flag.String("addr", "", "listen address (overrides backend.http_addr)")
	dbPath := flag.String("db", "", "database path (overrides backend.database_path)")
	noSeed := flag.Bool("no-seed", false, "do not load the sample catalogue into an empty database")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *addr, *dbPath, !*noSeed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, addr, dbPath string, seed bool) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Backend.HTTPAddr = addr
	}
	if dbPath != "" {
		cfg.Backend.DatabasePath = dbPath
	}
	if err := cfg.ValidateBackend(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := logging.New(cfg.Logging, os.Stdout)

	store, err := knowledge.Open(cfg.Backend.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if seed {
		seeded, err := store.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seeding knowledge base: %w", err)
		}
		if seeded {
			logger.Info("loaded sample catalogue", "path", cfg.Backend.DatabasePath)
		}
	}

	if cfg.Backend.AdminPassword != "" {
		if err := store.EnsureAdmin(ctx, cfg.Backend.AdminUser, cfg.Backend.AdminPassword); err != nil {
			return fmt.Errorf("creating admin: %w", err)
		}
	} else {
		logger.Warn("backend.admin_password not set, admin routes are unreachable")
	}

	secret := []byte(cfg.Backend.JWTSecret)
	if len(secret) == 0 {
		if secret, err = auth.RandomSecret(); err != nil {
			return err
		}
	}
	signer, err := auth.NewSigner(secret, auth.AudienceAdmin)
	if err != nil {
		return fmt.Errorf("creating admin signer: %w", err)
	}

	api := devapi.New(devapi.Config{
		KnowledgeBase: store,
		AdminSigner:   signer,
		TokenTTL:      cfg.Backend.TokenTTL,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.Backend.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, logger)
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("fake-tutor listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down fake-tutor")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
