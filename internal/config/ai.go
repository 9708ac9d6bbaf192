package config

import (
	"os"
	"strconv"
	"time"
)

// AIConfig holds all AI provider and dispatch settings.
type AIConfig struct {
	// BaseURL points at an Ollama-compatible generate endpoint.
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`

	// PollInterval is how often the dispatcher scans for unanswered doubts.
	// GracePeriod is the minimum doubt age before any AI answer may be
	// generated, so a human has first chance to answer.
	PollInterval time.Duration `json:"pollInterval"`
	GracePeriod  time.Duration `json:"gracePeriod"`

	// MaxAnswerLen caps the stored length of a generated answer.
	MaxAnswerLen int           `json:"maxAnswerLen"`
	Timeout      time.Duration `json:"timeout"`
}

// DefaultAIConfig returns the AI configuration from the environment with
// defaults matching the deployed behavior.
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		BaseURL:      getEnv("OLLAMA_URL", "http://127.0.0.1:11434"),
		Model:        getEnv("OLLAMA_MODEL", "llama3"),
		PollInterval: getEnvDuration("AI_POLL_INTERVAL", 10*time.Second),
		GracePeriod:  getEnvDuration("AI_GRACE_PERIOD", 10*time.Second),
		MaxAnswerLen: getEnvInt("AI_MAX_ANSWER_LEN", 300),
		Timeout:      getEnvDuration("AI_TIMEOUT", 60*time.Second),
	}
}

// GenerateEndpoint returns the full provider URL.
func (c *AIConfig) GenerateEndpoint() string {
	return c.BaseURL + "/api/generate"
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
