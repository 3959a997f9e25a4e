// ABOUTME: Entry point for tutor-web, the browser front end of the academic assistant
// ABOUTME: Serves one conversation per visitor session over plain HTTP or a tailnet

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/tutor-chat/internal/auth"
	"github.com/2389/tutor-chat/internal/chatapi"
	"github.com/2389/tutor-chat/internal/config"
	"github.com/2389/tutor-chat/internal/conversation"
	"github.com/2389/tutor-chat/internal/logging"
	"github.com/2389/tutor-chat/internal/metrics"
	"github.com/2389/tutor-chat/internal/session"
	"github.com/2389/tutor-chat/internal/webchat"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _         _                                 _
 | |_ _   _| |_ ___  _ __      __      _____| |__
 | __| | | | __/ _ \| '__|____\ \ /\ / / _ \ '_ \
 | |_| |_| | || (_) | | |_____|\ V  V /  __/ |_) |
  \__|\__,_|\__\___/|_|         \_/\_/ \___|_.__/
`

func main() {
	cmd := "serve"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tutor-web [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the web front end (default)")
	fmt.Println("  health   Check a running front end")
}

func runServe(ctx context.Context) error {
	configPath := config.DefaultPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Service:   %s\n", cfg.Service.BaseURL)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	if cfg.Server.Metrics {
		green.Print("    ▶ ")
		fmt.Println("Metrics:   /metrics")
	}
	fmt.Println()

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret, err = auth.RandomSecret()
		if err != nil {
			return err
		}
		logger.Warn("session.secret not set, sessions will not survive a restart")
	}
	signer, err := auth.NewSigner(secret, auth.AudienceSession)
	if err != nil {
		return fmt.Errorf("creating session signer: %w", err)
	}

	opts := []chatapi.Option{
		chatapi.WithTimeout(cfg.Service.Timeout),
		chatapi.WithLogger(logger),
	}
	var recorder *metrics.Recorder
	if cfg.Server.Metrics {
		recorder = metrics.New()
		opts = append(opts, chatapi.WithObserver(recorder))
	}
	client := chatapi.New(cfg.Service.BaseURL, opts...)

	hub := session.NewHub(client, session.Options{
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      logger,
	})
	defer hub.Close()
	if recorder != nil {
		recorder.TrackSessions(hub.Len)
	}

	srv := webchat.New(webchat.Config{
		Hub:          hub,
		Signer:       signer,
		CookieTTL:    cfg.Session.CookieTTL,
		QuickActions: conversation.DefaultQuickActions(),
		HTTPAddr:     cfg.Server.HTTPAddr,
		Tailscale:    cfg.Tailscale,
		Metrics:      recorder,
		Logger:       logger,
	})

	logger.Info("starting tutor-web",
		"config", configPath,
		"service", cfg.Service.BaseURL,
		"http_addr", cfg.Server.HTTPAddr,
	)
	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.LoadOptional(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
