package secretai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// ClientConfig configures the inference client. Zero values are filled in
// by defaults.Set.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64 `default:"1.0"`
	TimeoutSeconds int     `default:"120"`
}

type client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a chat client against an Ollama-compatible inference
// endpoint.
func NewClient(cfg ClientConfig) (Chatter, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply client defaults: %w", err)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("inference base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("inference model is required")
	}

	return &client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

func (c *client) Model() string {
	return c.cfg.Model
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

func (c *client) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("empty conversation")
	}

	payload := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": c.cfg.Temperature},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("inference error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("inference error: %s", parsed.Error)
	}

	text := strings.TrimSpace(parsed.Message.Content)
	if text == "" {
		return "", fmt.Errorf("inference response had no content")
	}
	return text, nil
}
