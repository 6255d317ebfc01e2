package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/models"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIntake = models.Intake{
	Personality: "quiet, analytical",
	Role:        "backend engineer on billing",
	Skills:      "Go, PostgreSQL",
	Experience:  "2 years",
	CareerGoal:  "tech lead",
	Motivation:  "ownership",
}

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *AzureClient {
	t.Helper()
	c := NewAzureClient(Config{
		Endpoint:    srv.URL + "/",
		APIKey:      "test-key",
		Deployment:  "gpt-test",
		APIVersion:  "2024-02-15-preview",
		MaxTokens:   2000,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
		MaxRetries:  retries,
	}, logging.Discard())
	c.backoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/gpt-test/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-15-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2000, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "backend engineer on billing")

		writeCompletion(w, "1. Review goals\n2. Current work")
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 0).Generate(context.Background(), testIntake)

	require.False(t, res.Failed(), "unexpected failure: %v", res.Err)
	assert.Equal(t, "1. Review goals\n2. Current work", res.Text)
	assert.Empty(t, res.Reason())
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`))
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 0).Generate(context.Background(), testIntake)

	require.True(t, res.Failed())
	var apiErr *APIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "401", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "invalid subscription key")
	assert.Equal(t, "The AI service rejected the request (HTTP 401).", res.Reason())
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 0).Generate(context.Background(), testIntake)

	assert.ErrorIs(t, res.Err, ErrEmptyCompletion)
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeCompletion(w, "agenda")
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 2).Generate(context.Background(), testIntake)

	require.False(t, res.Failed(), "unexpected failure: %v", res.Err)
	assert.Equal(t, "agenda", res.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 0).Generate(context.Background(), testIntake)

	require.True(t, res.Failed())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	res := newTestClient(t, srv, 3).Generate(context.Background(), testIntake)

	require.True(t, res.Failed())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 0)
	c.cfg.Timeout = 50 * time.Millisecond

	res := c.Generate(context.Background(), testIntake)

	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, "The AI service did not respond in time.", res.Reason())
}

func TestGenerateNotConfigured(t *testing.T) {
	c := NewAzureClient(Config{Endpoint: "https://example.invalid"}, logging.Discard())

	res := c.Generate(context.Background(), testIntake)

	assert.ErrorIs(t, res.Err, ErrNotConfigured)
	assert.Equal(t, "The AI service is not configured.", res.Reason())
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, retryable(&APIError{StatusCode: http.StatusBadGateway}))
	assert.False(t, retryable(&APIError{StatusCode: http.StatusForbidden}))
	assert.False(t, retryable(ErrEmptyCompletion))
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(errors.New("decode response: eof")))
}
