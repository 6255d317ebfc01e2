package agenda

import (
	"context"
	"errors"
	"fmt"

	"oneonone/agenda-service/internal/models"
)

var (
	ErrNotConfigured   = errors.New("agenda generator is not configured")
	ErrEmptyCompletion = errors.New("completion contained no text")
)

// APIError is a non-2xx answer from the chat-completion endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat completion failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat completion failed with status %d: %s", e.StatusCode, e.Message)
}

// Result is either generated agenda text or the reason generation failed.
type Result struct {
	Text string
	Err  error
}

func Success(text string) Result {
	return Result{Text: text}
}

func Failure(err error) Result {
	return Result{Err: err}
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Reason is a short message suitable for showing to the user.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	var apiErr *APIError
	switch {
	case errors.Is(r.Err, ErrNotConfigured):
		return "The AI service is not configured."
	case errors.Is(r.Err, ErrEmptyCompletion):
		return "The AI service returned an empty answer."
	case errors.Is(r.Err, context.DeadlineExceeded):
		return "The AI service did not respond in time."
	case errors.Is(r.Err, context.Canceled):
		return "The request was cancelled before the AI service answered."
	case errors.As(r.Err, &apiErr):
		return fmt.Sprintf("The AI service rejected the request (HTTP %d).", apiErr.StatusCode)
	default:
		return "The AI service could not be reached."
	}
}

// Generator drafts an agenda for one intake record.
type Generator interface {
	Generate(ctx context.Context, intake models.Intake) Result
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, intake models.Intake) Result

func (f GeneratorFunc) Generate(ctx context.Context, intake models.Intake) Result {
	return f(ctx, intake)
}
