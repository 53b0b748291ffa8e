// Package anthropic implements the ai.Vision capability against the
// Anthropic messages API with image input.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sketchduel/api/internal/ai"
)

const (
	defaultModel = "claude-3-5-sonnet-20241022"
	apiVersion   = "2023-06-01"
)

type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Provider() string     { return "anthropic" }
func (c *Client) DefaultModel() string { return c.model }

func (c *Client) ModelInfo() ai.ModelInfo {
	return ai.ModelInfo{Provider: "anthropic", Model: c.model, Type: "vision", MaxTokens: 4096}
}

func (c *Client) Invoke(ctx context.Context, prompt, imageData, model string) (ai.Completion, error) {
	if c.apiKey == "" {
		return ai.Completion{}, errors.New("missing ANTHROPIC_API_KEY")
	}

	payload := map[string]any{
		"model":      model,
		"max_tokens": 500,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "image", "source": map[string]any{
						"type":       "base64",
						"media_type": "image/png",
						"data":       imageData,
					}},
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return ai.Completion{}, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ai.Completion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return ai.Completion{}, fmt.Errorf("anthropic status %d", resp.StatusCode)
	}

	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ai.Completion{}, err
	}
	if len(out.Content) == 0 {
		return ai.Completion{}, errors.New("empty content")
	}
	return ai.Completion{
		Content: strings.TrimSpace(out.Content[0].Text),
		Tokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}
