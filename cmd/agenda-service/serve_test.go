package main

import (
	"testing"
	"time"

	"oneonone/agenda-service/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestWriteTimeout(t *testing.T) {
	tests := []struct {
		name string
		ai   config.AIConfig
		want time.Duration
	}{
		{"default", config.AIConfig{Timeout: 60 * time.Second}, 90 * time.Second},
		{"retries share the ai timeout", config.AIConfig{Timeout: 60 * time.Second, MaxRetries: 3}, 90 * time.Second},
		{"no ai timeout", config.AIConfig{MaxRetries: 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, writeTimeout(tt.ai))
		})
	}
}
