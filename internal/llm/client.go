package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// maxErrorBodyBytes caps how much of an error response is read for
// diagnostics.
const maxErrorBodyBytes = 2048

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatEnvelope struct {
	Choices []chatChoice `json:"choices"`
}

// Client calls an OpenAI-compatible chat completions service.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client on the default transport. The per-call
// timeout comes from the Config, not the transport.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// Generate sends one prompt as a single user message and returns the
// generated text. One outbound call, no retries; every failure comes back
// as a *GenerationError.
func (c *Client) Generate(ctx context.Context, cfg Config, promptText string) (string, error) {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	payload := map[string]any{
		"model": cfg.Model,
		"messages": []chatMessage{
			{Role: "user", Content: promptText},
		},
	}
	if cfg.MaxOutputTokens > 0 {
		payload["max_tokens"] = cfg.MaxOutputTokens
	}
	if cfg.Temperature > 0 {
		payload["temperature"] = cfg.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", newServiceError(0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(cfg.BaseURL), bytes.NewReader(body))
	if err != nil {
		return "", newServiceError(0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", newTimeoutError(err)
		}
		return "", newServiceError(0, "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", newAuthError(resp.StatusCode, readErrorBody(resp))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", newRateLimitError(resp.StatusCode, readErrorBody(resp))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", newServiceError(resp.StatusCode, readErrorBody(resp), nil)
	}

	// A success status with an undecodable body counts as an empty
	// response, not a service fault: the service answered, just not with
	// usable text.
	var envelope chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", newEmptyResponseError("undecodable response body", err)
	}
	if len(envelope.Choices) == 0 {
		return "", newEmptyResponseError("no choices", nil)
	}
	content := envelope.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", newEmptyResponseError("blank completion text", nil)
	}
	return content, nil
}

func endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

// isTimeout reports whether err is a deadline, cancellation, or network
// timeout rather than a service fault.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// readErrorBody returns a bounded snippet of an error response for
// diagnostics.
func readErrorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
