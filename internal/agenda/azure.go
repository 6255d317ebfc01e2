package agenda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/models"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	tracerName      = "oneonone/agenda-service/internal/agenda"
	maxResponseBody = 4 << 20
)

type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

func (c Config) configured() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

// AzureClient calls an Azure OpenAI chat-completion deployment.
type AzureClient struct {
	cfg     Config
	client  *http.Client
	log     logging.Logger
	backoff func() backoff.BackOff
}

type chatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewAzureClient(cfg Config, log logging.Logger) *AzureClient {
	return &AzureClient{
		cfg:    cfg,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:    log,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

func (c *AzureClient) Generate(ctx context.Context, intake models.Intake) Result {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agenda.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.deployment", c.cfg.Deployment),
		attribute.Int("ai.max_retries", c.cfg.MaxRetries),
	)

	start := time.Now()
	text, err := c.complete(ctx, intake)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		c.log.Warn(ctx, "agenda generation failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return Failure(err)
	}
	c.log.Info(ctx, "agenda generated", "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
	return Success(text)
}

func (c *AzureClient) complete(ctx context.Context, intake models.Intake) (string, error) {
	if !c.cfg.configured() {
		return "", ErrNotConfigured
	}

	messages, err := BuildMessages(intake)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	body, err := json.Marshal(chatRequest{
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	tries := c.cfg.MaxRetries + 1
	if tries < 1 {
		tries = 1
	}
	attempt := 0
	operation := func() (string, error) {
		attempt++
		text, err := c.do(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable(err) {
			return "", backoff.Permanent(err)
		}
		if attempt < tries {
			c.log.Warn(ctx, "chat completion attempt failed, retrying", "attempt", attempt, "error", err)
		}
		return "", err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(uint(tries)),
	)
}

func (c *AzureClient) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload chatError
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code = payload.Error.Code
			apiErr.Message = payload.Error.Message
		}
		return "", apiErr
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Choices) == 0 || strings.TrimSpace(payload.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *AzureClient) completionURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		url.PathEscape(c.cfg.Deployment),
		url.QueryEscape(c.cfg.APIVersion),
	)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
