package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"triage-chatbot/pkg"
)

const defaultTimeout = 15 * time.Second

// TriageClient talks to the remote triage service over HTTP. It implements
// the controller's Gateway contract and additionally exposes the history and
// department catalog endpoints. The service is treated as unreliable: every
// call is bounded by the request context and the client timeout, and errors
// are returned to the caller untouched.
type TriageClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ClientOption tweaks client defaults.
type ClientOption func(*TriageClient)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *TriageClient) { c.http = hc }
}

// WithRateLimit throttles outbound sends to r per second with the given
// burst. Zero disables throttling.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *TriageClient) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *TriageClient) { c.logger = logger.With("component", "gateway") }
}

// NewTriageClient builds a client for the given API base URL, e.g.
// "http://localhost:5000/api".
func NewTriageClient(baseURL string, opts ...ClientOption) *TriageClient {
	c := &TriageClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(2), 5),
		logger:  slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send forwards one patient turn to POST {base}/chat/chat.
func (c *TriageClient) Send(ctx context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	var resp pkg.ChatResponse
	if err := c.postJSON(ctx, "/chat/chat", req, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("triage reply received",
		"session_id", req.SessionID,
		"alert_level", resp.AlertLevel,
		"suggested_department", resp.SuggestedDepartment)
	return &resp, nil
}

// Reset asks the service to drop server-side context for the session via
// POST {base}/chat/reset. The ack body is opaque and discarded.
func (c *TriageClient) Reset(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/chat/reset", pkg.ResetRequest{SessionID: sessionID}, nil)
}

// History fetches the server-side transcript for a session from
// GET {base}/chat/history/{sessionId}.
func (c *TriageClient) History(ctx context.Context, sessionID string) (*pkg.HistoryResponse, error) {
	var resp pkg.HistoryResponse
	if err := c.getJSON(ctx, "/chat/history/"+sessionID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NewSessionID mints a client-side session id. The server accepts it without
// prior registration.
func (c *TriageClient) NewSessionID() string {
	return uuid.NewString()
}

func (c *TriageClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *TriageClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *TriageClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("triage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("triage service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
