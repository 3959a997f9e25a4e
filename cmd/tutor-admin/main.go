// ABOUTME: Admin CLI for the academic assistant's chat service
// ABOUTME: Browses the knowledge base, reads usage figures, and manages the admin token

package main

import (
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
)

const banner = `
  _         _                        _           _
 | |_ _   _| |_ ___  _ __       __ _| |_ __ ___ (_)_ __
 | __| | | | __/ _ \| '__|____ / _' | | '_ ' _ \| | '_ \
 | |_| |_| | || (_) | | |_____| (_| | | | | | | | | | | |
  \__|\__,_|\__\___/|_|        \__,_|_|_| |_| |_|_|_| |_|
`

// TokenEnv holds an admin token and wins over the token file.
const TokenEnv = "TUTOR_TOKEN"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := config.LoadOptional(config.DefaultPath())
	if err != nil {
		color.Red("Error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{
		baseURL:   cfg.Service.BaseURL,
		timeout:   cfg.Service.Timeout,
		token:     getToken(),
		tokenPath: tokenPath(),
		in:        os.Stdin,
		out:       os.Stdout,
	}

	if err := a.run(ctx, cmd, os.Args[2:]); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: tutor-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  categories                          List the knowledge base topics")
	fmt.Println("  questions <category-id>             List a topic's frequently asked questions")
	fmt.Println("  suggestions <session-id>            Show the questions suggested to a session")
	fmt.Println("  history <session-id>                Show a session's stored exchanges")
	fmt.Println("  feedback <message-id> <1-5> [text]  Rate a stored answer")
	fmt.Println("  stats                               Show usage totals")
	fmt.Println("  analytics                           Print the admin analytics as JSON")
	fmt.Println("  export [conversations|messages|questions]  Print a table dump as JSON")
	fmt.Println("  add-question --category <id> --question <text> --answer <text> [--keywords <list>]")
	fmt.Println("                                      Add a question to the knowledge base")
	fmt.Println("  login <username>                    Log in and store the admin token")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Printf("  %-24s Chat service URL (default: %s)\n", config.BaseURLEnv, config.DefaultBaseURL)
	fmt.Printf("  %-24s Admin token (default: read from %s)\n", TokenEnv, tokenPath())
	fmt.Printf("  %-24s Password for login, instead of prompting\n", PasswordEnv)
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  tutor-admin login admin")
	fmt.Println("  tutor-admin questions 3")
	fmt.Println("  tutor-admin export messages > messages.json")
	fmt.Println()
}

func tokenPath() string {
	return filepath.Join(config.Dir(), "token")
}

// getToken returns the token from TUTOR_TOKEN or the token file.
func getToken() string {
	if token := os.Getenv(TokenEnv); token != "" {
		return token
	}
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// newClient carries the admin token when there is one.
func (a *app) newClient() *chatapi.Client {
	opts := []chatapi.Option{chatapi.WithTimeout(a.timeout)}
	if a.token != "" {
		opts = append(opts, chatapi.WithToken(a.token))
	}
	return chatapi.New(a.baseURL, opts...)
}
