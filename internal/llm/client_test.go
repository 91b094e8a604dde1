package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) string {
	return fmt.Sprintf(`{"choices": [{"message": {"role": "assistant", "content": %q}}]}`, content)
}

func TestClient_Generate_Success(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotContentType string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse("I will search for flights first."))
	}))
	defer srv.Close()

	client := NewClient()
	text, err := client.Generate(context.Background(), Config{
		BaseURL:         srv.URL,
		Model:           "qwen3-30b-a3b-instruct-2507",
		APIKey:          "sk-test",
		MaxOutputTokens: 512,
		Temperature:     0.7,
	}, "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "I will search for flights first.", text)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	assert.Equal(t, "qwen3-30b-a3b-instruct-2507", gotPayload["model"])
	assert.Equal(t, float64(512), gotPayload["max_tokens"])
	assert.Equal(t, 0.7, gotPayload["temperature"])

	msgs, ok := gotPayload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "prompt text", msg["content"])
}

func TestClient_Generate_DefaultModel(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		fmt.Fprint(w, chatResponse("ok"))
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.Generate(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"}, "p")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gotPayload["model"])
}

func TestClient_Generate_OmitsUnsetSampling(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		fmt.Fprint(w, chatResponse("ok"))
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.Generate(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"}, "p")
	require.NoError(t, err)

	_, hasMax := gotPayload["max_tokens"]
	assert.False(t, hasMax, "zero max_tokens should not be sent")
	_, hasTemp := gotPayload["temperature"]
	assert.False(t, hasTemp, "zero temperature should not be sent")
}

func TestClient_Generate_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		matches  func(error) bool
		wantCode FailureCode
	}{
		{"unauthorized", http.StatusUnauthorized, IsAuthFailure, FailureAuth},
		{"forbidden", http.StatusForbidden, IsAuthFailure, FailureAuth},
		{"rate limited", http.StatusTooManyRequests, IsRateLimited, FailureRateLimited},
		{"server error", http.StatusInternalServerError, IsServiceError, FailureService},
		{"bad gateway", http.StatusBadGateway, IsServiceError, FailureService},
		{"unexpected client error", http.StatusNotFound, IsServiceError, FailureService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error": {"message": "denied"}}`)
			}))
			defer srv.Close()

			client := NewClient()
			_, err := client.Generate(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"}, "p")
			require.Error(t, err)
			assert.True(t, tt.matches(err))

			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.wantCode, ge.Code)
			assert.Equal(t, tt.status, ge.Status)
			assert.Contains(t, err.Error(), "denied")
		})
	}
}

func TestClient_Generate_EmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty content", chatResponse("")},
		{"whitespace content", chatResponse("  \n\t")},
		{"no choices", `{"choices": []}`},
		{"undecodable body", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient()
			_, err := client.Generate(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"}, "p")
			require.Error(t, err)
			assert.True(t, IsEmptyResponse(err))
		})
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, chatResponse("too late"))
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.Generate(context.Background(), Config{
		BaseURL: srv.URL,
		APIKey:  "k",
		Timeout: 50 * time.Millisecond,
	}, "p")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "deadline overrun should classify as timeout, got: %v", err)
}

func TestClient_Generate_TransportFailureIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient()
	_, err := client.Generate(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"}, "p")
	require.Error(t, err)

	var ge *GenerationError
	assert.ErrorAs(t, err, &ge, "transport failures must come back coded, not raw")
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	custom := Config{BaseURL: "http://x", Model: "m", Timeout: time.Second}.withDefaults()
	assert.Equal(t, "http://x", custom.BaseURL)
	assert.Equal(t, "m", custom.Model)
	assert.Equal(t, time.Second, custom.Timeout)
}
