package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubtdesk/internal/config"
)

func newTestClient(url string) *OllamaClient {
	return NewOllamaClient(&config.AIConfig{
		BaseURL: url,
		Model:   "llama3",
		Timeout: time.Second,
	})
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.NotEmpty(t, req["prompt"])

		json.NewEncoder(w).Encode(map[string]string{"response": "sound is a pressure wave"})
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Generate(context.Background(), "what is sound?")
	require.NoError(t, err)
	assert.Equal(t, "sound is a pressure wave", text)
}

func TestGenerateProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": ""})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "hi")
	assert.Error(t, err)
}
