// Package llm talks to a local Ollama endpoint for free-form assistant
// replies and for tool selection.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const persona = "You are a friendly and helpful AI assistant for 'Sweet Delights Bakery'. " +
	"Keep your responses concise and focused on bakery-related topics. " +
	"Do not make up items not in the bakery's inventory. If you don't know something, say so. " +
	"Do not ask me to search for you.\n"

// Config holds the Ollama endpoint settings.
type Config struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

func (cfg Config) withDefaults() Config {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434/api/generate"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:1b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// ChatMessage is one turn of assistant chat history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is an Ollama /api/generate client. Non-streaming only.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates an Ollama client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate asks the model for a free-form bakery assistant reply. The last
// two history turns are folded into the prompt.
func (c *Client) Generate(ctx context.Context, userInput string, history []ChatMessage) (string, error) {
	var b strings.Builder
	b.WriteString(persona)
	for _, turn := range lastTurns(history, 2) {
		switch turn.Role {
		case "user":
			fmt.Fprintf(&b, "\nUser: %s", turn.Content)
		case "assistant":
			fmt.Fprintf(&b, "\nAssistant: %s", turn.Content)
		}
	}
	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", userInput)

	text, err := c.generate(ctx, generateRequest{
		Model:  c.cfg.Model,
		Prompt: b.String(),
		Stream: false,
		Options: map[string]interface{}{
			"num_ctx":     2048,
			"temperature": 0.6,
			"top_p":       0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}

func lastTurns(history []ChatMessage, n int) []ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
