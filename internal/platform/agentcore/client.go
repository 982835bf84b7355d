// Package agentcore is the HTTP client for the external agent runtime that
// performs vendor discovery and outreach for a task.
package agentcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/valro-hq/valro-api/internal/config"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/task"
)

// Common errors
var (
	// ErrInvalidConfig indicates the client configuration is unusable.
	ErrInvalidConfig = errors.New("invalid agent runtime configuration")

	// ErrAgentInvocation indicates the runtime call itself failed: transport
	// error, non-success status, or an unreadable response.
	ErrAgentInvocation = errors.New("agent invocation failed")
)

// defaultTimeout bounds one agent turn. The runtime does vendor lookup plus
// per-vendor email composition, so this is generous on purpose.
const defaultTimeout = 120 * time.Second

// Client invokes the agent runtime over HTTP. One call per task, no retry:
// a failed turn is terminal for the task that requested it.
type Client struct {
	runtimeURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements task.AgentInvoker
var _ task.AgentInvoker = (*Client)(nil)

// NewClient creates an agent runtime client from configuration. An empty
// runtime URL is a startup error; there is no built-in fallback endpoint.
func NewClient(cfg config.AgentConfig, logger *slog.Logger) (*Client, error) {
	if cfg.RuntimeURL == "" {
		return nil, fmt.Errorf("%w: runtime URL cannot be empty", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		runtimeURL: cfg.RuntimeURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "agentcore_client"),
	}, nil
}

// invokeRequest is the wire format of one agent turn request.
type invokeRequest struct {
	Prompt string `json:"prompt"`
}

// invokeResponse is the wire format of one agent turn outcome.
type invokeResponse struct {
	Response   string               `json:"response"`
	Vendors    []domain.Vendor      `json:"vendors"`
	Emails     []domain.EmailRecord `json:"emails"`
	EmailsSent int                  `json:"emails_sent"`
}

// InvokeAgent sends the task description to the runtime and returns the
// agent's result. The call either succeeds for the whole turn or fails for
// the whole turn.
func (c *Client) InvokeAgent(ctx context.Context, prompt string) (*task.AgentResult, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrAgentInvocation)
	}

	body, err := json.Marshal(invokeRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrAgentInvocation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.runtimeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrAgentInvocation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("invoking agent runtime", "url", c.runtimeURL)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("agent runtime request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAgentInvocation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Read a bounded slice of the body for the logs; clients of this
		// client only ever see the sentinel.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("agent runtime returned non-success status",
			"status", resp.StatusCode,
			"body", string(detail))
		return nil, fmt.Errorf("%w: runtime returned status %d", ErrAgentInvocation, resp.StatusCode)
	}

	var decoded invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("failed to decode agent runtime response", "error", err)
		return nil, fmt.Errorf("%w: decode response: %v", ErrAgentInvocation, err)
	}

	c.logger.Info("agent runtime turn completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"vendors", len(decoded.Vendors),
		"emails_sent", decoded.EmailsSent)

	return &task.AgentResult{
		Response:   decoded.Response,
		Vendors:    decoded.Vendors,
		Emails:     decoded.Emails,
		EmailsSent: decoded.EmailsSent,
	}, nil
}
