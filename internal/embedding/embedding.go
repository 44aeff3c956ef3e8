// Package embedding converts text to dense vectors using an
// Ollama-compatible embedding endpoint. The provider is constructed
// explicitly and injected; whether embeddings are available at all is a
// capability the rest of the pipeline degrades around.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config configures the embedding provider.
type Config struct {
	// Host is the base URL of the Ollama server.
	// Default: "http://localhost:11434".
	Host string

	// Model is the embedding model name. Default: "all-minilm",
	// a lightweight general-purpose sentence encoder.
	Model string

	// Timeout bounds a single embedding request. Default: 30s.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "all-minilm"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Provider computes embeddings over HTTP. Safe for concurrent use.
type Provider struct {
	host   string
	model  string
	client *http.Client

	probeOnce sync.Once
	available bool
}

// New creates a Provider. No network call is made until the first
// Embed/EmbedMany/Available call.
func New(cfg Config) *Provider {
	cfg.applyDefaults()
	return &Provider{
		host:  strings.TrimRight(cfg.Host, "/"),
		model: cfg.Model,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Model returns the configured embedding model name.
func (p *Provider) Model() string {
	return p.model
}

// Available reports whether the embedding backend answered a probe request.
// The probe runs once per process; a failed probe disables embeddings for
// the rest of the run and every dependent degrades gracefully.
func (p *Provider) Available(ctx context.Context) bool {
	p.probeOnce.Do(func() {
		_, err := p.embed(ctx, []string{"ping"})
		if err != nil {
			slog.Warn("embedding model unavailable, local ML features disabled",
				"model", p.model, "error", err)
			return
		}
		slog.Info("embedding model loaded", "model", p.model)
		p.available = true
	})
	return p.available
}

// Embed returns the embedding vector for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany returns one vector per input text, computed in a single
// batched request.
func (p *Provider) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return p.embed(ctx, texts)
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *Provider) embed(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response returned %d vectors for %d inputs", len(parsed.Embeddings), len(texts))
	}
	for i, v := range parsed.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding response returned empty vector at index %d", i)
		}
	}

	return parsed.Embeddings, nil
}
