// ABOUTME: HTTP client for the remote chat service contract
// ABOUTME: One request per call, no retries; failures are wrapped and returned

package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL points at the service's local development port.
const DefaultBaseURL = "http://localhost:5002"

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// ErrMalformedReply is returned when /get_response answers 2xx without a
// "response" field.
var ErrMalformedReply = errors.New("reply has no response field")

// StatusError reports a non-2xx answer. Message holds the payload's "error"
// text when the service sent one.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Observer is told about every completed service call. outcome is "ok",
// "transport", "status", "service_error" or "decode".
type Observer interface {
	ObserveCall(method, path, outcome string, d time.Duration)
}

// Client talks to one chat service instance.
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	logger   *slog.Logger
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken attaches a bearer token to every request. Admin routes need it.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for the service at baseURL. An empty baseURL means
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chatapi")
	return c
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type sessionKey struct{}

// WithSession tags ctx with the chat session a question belongs to.
// GetResponse forwards it so the service can group a session's exchanges.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// GetResponse asks the service to answer a free-text question.
func (c *Client) GetResponse(ctx context.Context, text string) (Reply, error) {
	form := url.Values{"user_input": {text}}
	if id := SessionFrom(ctx); id != "" {
		form.Set("session_id", id)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/get_response", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		Response  *string `json:"response"`
		MessageID int64   `json:"message_id"`
	}
	if err := c.do(req, &payload); err != nil {
		return Reply{}, err
	}
	if payload.Response == nil {
		return Reply{}, fmt.Errorf("POST /get_response: %w", ErrMalformedReply)
	}
	return Reply{Text: *payload.Response, MessageID: payload.MessageID}, nil
}

// ListCategories returns the knowledge base's topics in service order.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	var categories []Category
	if err := c.do(req, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListQuestionsByCategory returns the frequently asked questions of one
// category.
func (c *Client) ListQuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error) {
	if categoryID <= 0 {
		return nil, ErrInvalidCategory
	}
	q := url.Values{"category_id": {strconv.Itoa(categoryID)}}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/questions", q, nil)
	if err != nil {
		return nil, err
	}
	var questions []Question
	if err := c.do(req, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitFeedback records a rating for a stored answer.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/feedback", nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// ListSuggestions returns questions worth offering to the given session.
func (c *Client) ListSuggestions(ctx context.Context, sessionID string) ([]Suggestion, error) {
	q := url.Values{"session_id": {sessionID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/suggestions", q, nil)
	if err != nil {
		return nil, err
	}
	var suggestions []Suggestion
	if err := c.do(req, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// Stats returns the public usage summary.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/stats", nil, nil)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	if err := c.do(req, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Analytics returns the admin breakdown. The client must carry a token.
func (c *Client) Analytics(ctx context.Context) (Analytics, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analytics", nil, nil)
	if err != nil {
		return Analytics{}, err
	}
	var a Analytics
	if err := c.do(req, &a); err != nil {
		return Analytics{}, err
	}
	return a, nil
}

// Export dumps one table. kind is one of the Export* constants.
func (c *Client) Export(ctx context.Context, kind string) (Export, error) {
	q := url.Values{"type": {kind}}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/export", q, nil)
	if err != nil {
		return Export{}, err
	}
	var out Export
	if err := c.do(req, &out); err != nil {
		return Export{}, err
	}
	return out, nil
}

// History returns the stored exchanges of a session, oldest first.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	q := url.Values{"session_id": {sessionID}}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/history", q, nil)
	if err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddQuestion stores a new question and answer. Needs an admin token.
func (c *Client) AddQuestion(ctx context.Context, nq NewQuestion) error {
	body, err := json.Marshal(nq)
	if err != nil {
		return fmt.Errorf("encode question: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/questions", nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := c.newRequest(ctx, http.MethodPost, "/login", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", fmt.Errorf("POST /login: %w", ErrMalformedReply)
	}
	return payload.Token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	outcome, err := c.roundTrip(req, out)
	if c.observer != nil {
		c.observer.ObserveCall(req.Method, req.URL.Path, outcome, time.Since(start))
	}
	return err
}

func (c *Client) roundTrip(req *http.Request, out any) (string, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "transport", fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "transport", fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	c.logger.Debug("service call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "status", &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    errorField(body),
		}
	}
	if msg := errorField(body); msg != "" {
		return "service_error", fmt.Errorf("%s %s: %w: %s", req.Method, req.URL.Path, ErrServiceError, msg)
	}
	if out == nil {
		return "ok", nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return "decode", fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return "ok", nil
}

// errorField extracts {"error": "..."} from a JSON object body. Arrays and
// non-JSON bodies yield "".
func errorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
