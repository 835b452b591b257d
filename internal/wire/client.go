package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	userAgent = "agentbay-go/0.1"

	// Backoff policy for beta endpoints (network token, volumes):
	// 200ms, 400ms, bounded at 3 attempts. Only transient 503s retry;
	// the main RPC plane never retries.
	betaBackoffBase = 200 * time.Millisecond
	betaMaxRetries  = 2
)

// Client is an HTTP client for the AgentBay managed API. Every call carries
// an Authorization bearer header and returns the response's request id
// alongside any error, so callers can surface it in result envelopes.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a managed API client. endpoint may be a bare host
// (https is assumed) or a full URL; httpClient nil means http.DefaultClient.
func NewClient(endpoint, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base := strings.TrimRight(endpoint, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return &Client{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// envelope is the common response wrapper. A nil Success means the field
// was absent, which is treated as success for endpoints that omit it.
type envelope struct {
	RequestID string          `json:"requestId"`
	Success   *bool           `json:"success"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// Invoke executes one RPC against the managed API. The request body is
// JSON-marshaled; the envelope's data payload is unmarshaled into out when
// out is non-nil. The returned request id is valid even on API-level errors.
func (c *Client) Invoke(ctx context.Context, action string, req, out any) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("wire: marshaling %s request: %w", action, err)
	}

	url := c.baseURL + "/api/v1/" + action

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("wire: creating %s request: %w", action, err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("wire: %s canceled: %w", action, ctx.Err())
		}

		return "", fmt.Errorf("wire: %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("wire: reading %s response: %w", action, err)
	}

	var env envelope
	// The body may not be valid JSON on gateway errors; keep the raw text
	// for the error message in that case.
	decodable := json.Unmarshal(respBody, &env) == nil

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := string(respBody)
		if decodable && env.Message != "" {
			msg = env.Message
		}

		c.logger.Warn("api call failed",
			slog.String("action", action),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", env.RequestID),
		)

		return env.RequestID, &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    msg,
			RequestID:  env.RequestID,
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if !decodable {
		return "", fmt.Errorf("wire: decoding %s response: invalid JSON", action)
	}

	if env.Success != nil && !*env.Success {
		level := slog.LevelWarn
		if env.Code == CodeSessionNotFound {
			// Released sessions are an expected condition, not a fault.
			level = slog.LevelInfo
		}

		c.logger.Log(ctx, level, "api-level failure",
			slog.String("action", action),
			slog.String("code", env.Code),
			slog.String("request_id", env.RequestID),
		)

		return env.RequestID, &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
			RequestID:  env.RequestID,
			Err:        classifyCode(env.Code),
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.RequestID, fmt.Errorf("wire: decoding %s data: %w", action, err)
		}
	}

	c.logger.Debug("api call succeeded",
		slog.String("action", action),
		slog.String("request_id", env.RequestID),
	)

	return env.RequestID, nil
}

// InvokeBeta executes one RPC against a beta endpoint with the transient-503
// backoff policy. Any other failure, including non-503 5xx, is returned
// immediately.
func (c *Client) InvokeBeta(ctx context.Context, action string, req, out any) (string, error) {
	var requestID string

	backoff := retry.WithMaxRetries(betaMaxRetries, retry.NewExponential(betaBackoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := c.Invoke(ctx, action, req, out)
		if id != "" {
			requestID = id
		}

		if err != nil && errors.Is(err, ErrServiceUnavailable) {
			c.logger.Warn("beta endpoint unavailable, retrying",
				slog.String("action", action),
				slog.String("request_id", id),
			)

			return retry.RetryableError(err)
		}

		return err
	})

	return requestID, err
}
