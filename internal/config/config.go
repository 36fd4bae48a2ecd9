package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Mode selects which triage gateway the widget talks to.
type Mode string

const (
	// ModeLocal answers with the built-in keyword classifier, no network.
	ModeLocal Mode = "local"
	// ModeOpenAI answers with the OpenAI-backed classifier.
	ModeOpenAI Mode = "openai"
	// ModeRemote talks to the real triage HTTP service.
	ModeRemote Mode = "remote"
)

// Config holds everything the widget reads from the environment.
type Config struct {
	Mode Mode

	// Triage API base URL, used in remote mode.
	APIBaseURL string

	// OpenAI credentials, used in openai mode.
	OpenAIAPIKey string
	OpenAIModel  string

	// SendTimeout bounds each triage call.
	SendTimeout time.Duration

	// ReplyDelay imitates network latency in local mode.
	ReplyDelay time.Duration

	// Outbound send throttling for the HTTP client.
	RateLimit float64
	RateBurst int

	// Initial UI language tag, "VI" or "EN".
	Language string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config. It returns an error for
// combinations that cannot work, like openai mode without an API key.
func Load() (*Config, error) {
	mode := Mode(getEnv("TRIAGE_MODE", string(ModeLocal)))
	switch mode {
	case ModeLocal, ModeOpenAI, ModeRemote:
	default:
		return nil, fmt.Errorf("config: unknown TRIAGE_MODE %q", mode)
	}

	cfg := &Config{
		Mode:         mode,
		APIBaseURL:   getEnv("TRIAGE_API_URL", "http://localhost:5000/api"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL_CHAT", ""),
		SendTimeout:  getDurationEnv("TRIAGE_SEND_TIMEOUT", 15*time.Second),
		ReplyDelay:   getDurationEnv("TRIAGE_REPLY_DELAY", 1500*time.Millisecond),
		RateLimit:    getFloatEnv("TRIAGE_RATE_LIMIT", 2),
		RateBurst:    getIntEnv("TRIAGE_RATE_BURST", 5),
		Language:     getEnv("TRIAGE_LANGUAGE", "VI"),
	}

	if cfg.Mode == ModeOpenAI && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("config: OPENAI_API_KEY must be set in openai mode")
	}
	return cfg, nil
}
