package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"doubtdesk/internal/config"
)

// Generator is the AI text-generation provider: prompt in, answer text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OllamaClient calls an Ollama-compatible generate endpoint.
type OllamaClient struct {
	config *config.AIConfig
	client *http.Client
}

// NewOllamaClient creates a new provider client.
func NewOllamaClient(cfg *config.AIConfig) *OllamaClient {
	return &OllamaClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate posts the prompt and returns the generated text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  c.config.Model,
		"prompt": prompt,
		"stream": false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.GenerateEndpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var genResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", err
	}

	if genResp.Response == "" {
		return "", fmt.Errorf("empty response from provider")
	}

	return genResp.Response, nil
}
