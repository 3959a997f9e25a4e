// ABOUTME: Subcommands of tutor-admin
// ABOUTME: Each talks to the chat service through chatapi and prints to the app's writer

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/2389/tutor-chat/internal/chatapi"
)

// PasswordEnv supplies the login password without a prompt.
const PasswordEnv = "TUTOR_PASSWORD"

var errNoToken = fmt.Errorf("admin token required: run tutor-admin login or set %s", TokenEnv)

type app struct {
	baseURL   string
	timeout   time.Duration
	token     string
	tokenPath string
	in        io.Reader
	out       io.Writer
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "categories":
		return a.cmdCategories(ctx)
	case "questions":
		return a.cmdQuestions(ctx, args)
	case "suggestions":
		return a.cmdSuggestions(ctx, args)
	case "history":
		return a.cmdHistory(ctx, args)
	case "feedback":
		return a.cmdFeedback(ctx, args)
	case "stats":
		return a.cmdStats(ctx)
	case "analytics":
		return a.cmdAnalytics(ctx)
	case "export":
		return a.cmdExport(ctx, args)
	case "add-question":
		return a.cmdAddQuestion(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s (see tutor-admin help)", cmd)
	}
}

func (a *app) heading(title string) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(a.out)
	cyan.Fprintf(a.out, "  %s\n", title)
	cyan.Fprintf(a.out, "  %s\n", strings.Repeat("-", len([]rune(title))))
}

func (a *app) cmdCategories(ctx context.Context) error {
	cats, err := a.newClient().ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}

	a.heading("Categories")
	if len(cats) == 0 {
		fmt.Fprintln(a.out, "  (no categories)")
		fmt.Fprintln(a.out)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tQUESTIONS\tDESCRIPTION")
	fmt.Fprintln(w, "  --\t----\t---------\t-----------")
	for _, c := range cats {
		fmt.Fprintf(w, "  %d\t%s\t%d\t%s\n", c.ID, c.Name, c.QuestionCount, truncate(c.Description, 40))
	}
	w.Flush()
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) cmdQuestions(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: questions <category-id>")
	}
	categoryID, err := strconv.Atoi(args[0])
	if err != nil || categoryID <= 0 {
		return fmt.Errorf("invalid category id: %q", args[0])
	}

	questions, err := a.newClient().ListQuestionsByCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("listing questions: %w", err)
	}

	a.heading(fmt.Sprintf("Questions in category %d", categoryID))
	if len(questions) == 0 {
		fmt.Fprintln(a.out, "  (no questions)")
		fmt.Fprintln(a.out)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tUSES\tQUESTION")
	fmt.Fprintln(w, "  --\t----\t--------")
	for _, q := range questions {
		fmt.Fprintf(w, "  %d\t%d\t%s\n", q.ID, q.UsageCount, truncate(q.Question, 60))
	}
	w.Flush()
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) cmdSuggestions(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: suggestions <session-id>")
	}

	suggestions, err := a.newClient().ListSuggestions(ctx, args[0])
	if err != nil {
		return fmt.Errorf("listing suggestions: %w", err)
	}

	a.heading("Suggestions")
	if len(suggestions) == 0 {
		fmt.Fprintln(a.out, "  (no suggestions)")
		fmt.Fprintln(a.out)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TYPE\tCATEGORY\tQUESTION")
	fmt.Fprintln(w, "  ----\t--------\t--------")
	for _, s := range suggestions {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", s.Type, s.Category, truncate(s.Question, 60))
	}
	w.Flush()
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: history <session-id>")
	}

	entries, err := a.newClient().History(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	a.heading("History of " + args[0])
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "  (no messages)")
		fmt.Fprintln(a.out)
		return nil
	}

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	for _, e := range entries {
		gray.Fprintf(a.out, "  %s  confidence %.2f\n", e.Timestamp, e.Confidence)
		green.Fprint(a.out, "  > ")
		fmt.Fprintln(a.out, e.UserInput)
		fmt.Fprintf(a.out, "  %s\n\n", truncate(strings.ReplaceAll(e.BotResponse, "\n", " "), 100))
	}
	return nil
}

func (a *app) cmdFeedback(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: feedback <message-id> <rating 1-5> [comment]")
	}
	messageID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id: %q", args[0])
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating: %q", args[1])
	}

	fb := chatapi.Feedback{MessageID: messageID, Rating: rating, Comment: strings.Join(args[2:], " ")}
	if err := a.newClient().SubmitFeedback(ctx, fb); err != nil {
		return fmt.Errorf("submitting feedback: %w", err)
	}

	color.New(color.FgGreen).Fprintf(a.out, "✓ Rated message %d with %d/5\n", messageID, rating)
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	stats, err := a.newClient().Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	a.heading("Usage")
	fmt.Fprintf(a.out, "  Questions:      %d\n", stats.TotalQuestions)
	fmt.Fprintf(a.out, "  Conversations:  %d\n", stats.TotalConversations)
	fmt.Fprintf(a.out, "  Messages:       %d\n", stats.TotalMessages)

	if len(stats.PopularQuestions) > 0 {
		a.heading("Popular questions")
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  USES\tQUESTION")
		for _, p := range stats.PopularQuestions {
			fmt.Fprintf(w, "  %d\t%s\n", p.UsageCount, p.Question)
		}
		w.Flush()
	}

	if len(stats.CategoryStats) > 0 {
		a.heading("Questions per category")
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for _, c := range stats.CategoryStats {
			fmt.Fprintf(w, "  %s\t%d\n", c.Name, c.Count)
		}
		w.Flush()
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *app) cmdAnalytics(ctx context.Context) error {
	if a.token == "" {
		return errNoToken
	}
	analytics, err := a.newClient().Analytics(ctx)
	if err != nil {
		return fmt.Errorf("reading analytics: %w", err)
	}
	return a.printJSON(analytics)
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	if a.token == "" {
		return errNoToken
	}
	kind := chatapi.ExportConversations
	if len(args) > 0 {
		kind = args[0]
	}
	switch kind {
	case chatapi.ExportConversations, chatapi.ExportMessages, chatapi.ExportQuestions:
	default:
		return fmt.Errorf("unknown export type %q (use conversations, messages, questions)", kind)
	}

	dump, err := a.newClient().Export(ctx, kind)
	if err != nil {
		return fmt.Errorf("exporting %s: %w", kind, err)
	}
	return a.printJSON(dump)
}

func (a *app) cmdAddQuestion(ctx context.Context, args []string) error {
	if a.token == "" {
		return errNoToken
	}

	fs := flag.NewFlagSet("add-question", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	categoryID := fs.Int("category", 0, "category id")
	question := fs.String("question", "", "question text")
	answer := fs.String("answer", "", "answer text")
	keywords := fs.String("keywords", "", "comma separated keywords")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("add-question: %w", err)
	}

	nq := chatapi.NewQuestion{
		Question:   strings.TrimSpace(*question),
		Answer:     strings.TrimSpace(*answer),
		CategoryID: *categoryID,
		Keywords:   strings.TrimSpace(*keywords),
	}
	if nq.Question == "" || nq.Answer == "" || nq.CategoryID <= 0 {
		return errors.New("usage: add-question --category <id> --question <text> --answer <text> [--keywords <list>]")
	}

	if err := a.newClient().AddQuestion(ctx, nq); err != nil {
		return fmt.Errorf("adding question: %w", err)
	}
	color.New(color.FgGreen).Fprintf(a.out, "✓ Added question to category %d\n", nq.CategoryID)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: login <username>")
	}
	username := args[0]

	password, err := a.readPassword()
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	token, err := a.newClient().Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(a.tokenPath, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	a.token = token

	color.New(color.FgGreen).Fprintf(a.out, "✓ Logged in as %s\n", username)
	fmt.Fprintf(a.out, "  Token saved to %s\n", a.tokenPath)
	return nil
}

// readPassword takes TUTOR_PASSWORD, else prompts without echo on a
// terminal, else reads one line of input.
func (a *app) readPassword() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// truncate shortens a string to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
