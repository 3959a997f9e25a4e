// ABOUTME: Terminal client for the academic assistant
// ABOUTME: Runs one conversation against the chat service inside a Bubble Tea program

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/tutor-chat/internal/chatapi"
	"github.com/2389/tutor-chat/internal/config"
	"github.com/2389/tutor-chat/internal/conversation"
	"github.com/2389/tutor-chat/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	server := flag.String("server", "", "chat service URL (overrides service.base_url)")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *server, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, server, logPath string) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if server != "" {
		cfg.Service.BaseURL = server
	}

	logger, closeLog, err := setupLogger(cfg.Logging, logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	client := chatapi.New(cfg.Service.BaseURL,
		chatapi.WithTimeout(cfg.Service.Timeout),
		chatapi.WithLogger(logger),
	)
	manager := conversation.NewManager(client, conversation.Options{Logger: logger})

	logger.Info("starting tutor-tui", "service", client.BaseURL(), "session_id", manager.SessionID())

	p := tea.NewProgram(
		newModel(ctx, manager, conversation.DefaultQuickActions()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// setupLogger keeps log lines off the terminal the program draws on.
func setupLogger(cfg config.LoggingConfig, path string) (*slog.Logger, func(), error) {
	if path == "" {
		return logging.New(cfg, io.Discard), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logging.New(cfg, f), func() { f.Close() }, nil
}
