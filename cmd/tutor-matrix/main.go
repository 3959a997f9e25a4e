// ABOUTME: Entry point for tutor-matrix bridge
// ABOUTME: Lets Matrix rooms talk to the academic assistant

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/tutor-chat/internal/chatapi"
	"github.com/2389/tutor-chat/internal/config"
	"github.com/2389/tutor-chat/internal/logging"
	"github.com/2389/tutor-chat/internal/session"
)

const banner = `
  _         _                                 _        _
 | |_ _   _| |_ ___  _ __      _ __ ___   __ _| |_ _ __(_)_  __
 | __| | | | __/ _ \| '__|____| '_ ' _ \ / _' | __| '__| \ \/ /
 | |_| |_| | || (_) | | |_____| | | | | | (_| | |_| |  | |>  <
  \__|\__,_|\__\___/|_|       |_| |_| |_|\__,_|\__|_|  |_/_/\_\
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	path := configPath()
	cfg, err := Load(path)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", path, err)
	}

	logger := logging.New(config.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, os.Stdout)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", path)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("Username:   %s\n", cfg.Matrix.Username)
	green.Print("    ▶ ")
	fmt.Printf("Service:    %s\n", cfg.Service.URL)
	if cfg.Matrix.RecoveryKey != "" {
		green.Print("    ▶ ")
		fmt.Println("Encryption: enabled")
	}
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := chatapi.New(cfg.Service.URL,
		chatapi.WithTimeout(cfg.Service.Timeout.Duration),
		chatapi.WithLogger(logger),
	)
	hub := session.NewHub(client, session.Options{
		IdleTimeout: cfg.Bridge.IdleTimeout.Duration,
		Logger:      logger,
	})
	defer hub.Close()

	bridge, err := NewBridge(cfg, hub, logger)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Login(ctx); err != nil {
		return fmt.Errorf("matrix login: %w", err)
	}

	if cfg.Matrix.RecoveryKey != "" {
		cryptoMgr, err := SetupCrypto(ctx, bridge.matrix, bridge.UserID(), cfg.Matrix.RecoveryKey, dataPath(), logger)
		if err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		defer cryptoMgr.Close()
	} else {
		logger.Info("encryption disabled (no recovery key)")
	}

	return bridge.Run(ctx)
}

func runInit() error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println("    Interactive Setup")
	fmt.Println("    -----------------")
	fmt.Println()

	path := configPath()
	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(path); err == nil {
		yellow.Printf("    Config already exists at %s\n", path)
		fmt.Print("    Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("    Aborted.")
			return nil
		}
		fmt.Println()
	}

	ask := func(prompt, def string) string {
		green.Print("    ▶ ")
		fmt.Print(prompt)
		v, _ := reader.ReadString('\n')
		v = strings.TrimSpace(v)
		if v == "" {
			return def
		}
		return v
	}

	homeserver := ask("Matrix homeserver URL [https://matrix.org]: ", "https://matrix.org")
	username := ask("Matrix username: ", "")
	password := ask("Matrix password: ", "")
	recoveryKey := ask("Matrix recovery key (optional, for E2EE): ", "")
	serviceURL := ask("Chat service URL ["+config.DefaultBaseURL+"]: ", config.DefaultBaseURL)
	prefix := ask("Command prefix [!]: ", "!")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(renderConfig(homeserver, username, password, recoveryKey, serviceURL, prefix)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println()
	green.Printf("    ✓ Config written to %s\n", path)
	fmt.Println()
	fmt.Println("    Next steps:")
	fmt.Println("    1. Run: tutor-matrix")
	fmt.Println("    2. Invite the bot to a room and say hola")
	fmt.Println()
	return nil
}

func renderConfig(homeserver, username, password, recoveryKey, serviceURL, prefix string) string {
	out := fmt.Sprintf(`# tutor-matrix bridge configuration
# Generated by tutor-matrix init

[matrix]
homeserver = %q
username = %q
password = %q
`, homeserver, username, password)

	if recoveryKey != "" {
		out += fmt.Sprintf("recovery_key = %q\n", recoveryKey)
	}

	out += fmt.Sprintf(`
[service]
url = %q
timeout = "30s"

[bridge]
# Only respond in these rooms (empty = all joined rooms)
allowed_rooms = []
# Marks commands such as %stemas; everything else is a question
command_prefix = %q
# Send typing indicator while waiting for an answer
typing_indicator = true
# Forget a room's conversation after this long without messages
idle_timeout = "1h"

[logging]
level = "info"
`, serviceURL, prefix, prefix)
	return out
}
