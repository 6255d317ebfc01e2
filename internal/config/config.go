package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSecretKey  = "dev-secret-key-change-in-production"
	DefaultAPIVersion = "2024-02-15-preview"
)

var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/takao-gothic/TakaoPGothic.ttf",
	"/usr/share/fonts/opentype/ipaexfont-gothic/ipaexg.ttf",
	"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"C:/Windows/Fonts/arialuni.ttf",
}

type Config struct {
	Port            string
	CredentialsFile string
	DatabaseURL     string
	SecretKey       string
	SessionTTL      time.Duration
	CookieSecure    bool
	LogLevel        string

	AI AIConfig

	FontPaths []string

	GenerateRateLimitPerMinute int
	GenerateRateLimitBurst     int
}

type AIConfig struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	FailureMode string
}

// InsecureSecret reports whether the session secret is the built-in default.
func (c Config) InsecureSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:            port,
		CredentialsFile: readString("CREDENTIALS_FILE", "users"),
		DatabaseURL:     os.Getenv("DB_DSN"),
		SecretKey:       readString("SECRET_KEY", DefaultSecretKey),
		SessionTTL:      readDurationSeconds("SESSION_TTL_SECONDS", 8*60*60),
		CookieSecure:    readBool("COOKIE_SECURE", false),
		LogLevel:        readString("LOG_LEVEL", "info"),
		AI: AIConfig{
			Endpoint:    os.Getenv("AZURE_OPENAI_ENDPOINT"),
			APIKey:      os.Getenv("AZURE_OPENAI_KEY"),
			Deployment:  os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
			APIVersion:  readString("AZURE_OPENAI_API_VERSION", DefaultAPIVersion),
			MaxTokens:   readInt("AI_MAX_TOKENS", 2000),
			Temperature: readFloat("AI_TEMPERATURE", 0.7),
			Timeout:     readDurationSeconds("AI_TIMEOUT_SECONDS", 60),
			MaxRetries:  readInt("AI_MAX_RETRIES", 0),
			FailureMode: readString("AI_FAILURE_MODE", "document"),
		},
		FontPaths:                  readList("FONT_PATHS", defaultFontPaths),
		GenerateRateLimitPerMinute: readInt("GENERATE_RATE_LIMIT_PER_MIN", 10),
		GenerateRateLimitBurst:     readInt("GENERATE_RATE_LIMIT_BURST", 3),
	}
}

func readString(key, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return raw
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
