// Package scriptgen writes short scripts and their SEO metadata with an
// OpenAI-compatible chat completions API, falling back to templates when no key is set.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/pkg/errors"
)

// Client talks to /chat/completions. A Client without an APIKey is offline.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTP        *http.Client
}

func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		HTTP:        &http.Client{Timeout: timeout},
	}
}

// Online reports whether requests will be sent at all.
func (c *Client) Online() bool {
	return c != nil && c.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// completeJSON sends one system+user exchange asking for a JSON object and returns the
// cleaned message content.
func (c *Client) completeJSON(ctx context.Context, system, user string, temperature float64) ([]byte, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "scriptgen.complete", "chat request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse chat response (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return nil, errors.Newf(errors.CodeUnavailable, "chat error: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.CodeUnavailable, "chat request returned HTTP %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New(errors.CodeUnavailable, "chat returned no choices")
	}
	return []byte(cleanJSON(out.Choices[0].Message.Content)), nil
}

// cleanJSON strips the markdown fences some models wrap JSON in.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
