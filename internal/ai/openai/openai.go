// Package openai implements the ai.Vision capability against the OpenAI
// chat completions API with image input.
package openai

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

const defaultModel = "gpt-4o"

type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
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

func (c *Client) Provider() string     { return "openai" }
func (c *Client) DefaultModel() string { return c.model }

func (c *Client) ModelInfo() ai.ModelInfo {
	return ai.ModelInfo{Provider: "openai", Model: c.model, Type: "vision", MaxTokens: 4096}
}

func (c *Client) Invoke(ctx context.Context, prompt, imageData, model string) (ai.Completion, error) {
	if c.apiKey == "" {
		return ai.Completion{}, errors.New("missing OPENAI_API_KEY")
	}

	payload := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{
						"url": "data:image/png;base64," + imageData,
					}},
				},
			},
		},
		"max_tokens":  500,
		"temperature": 0.1,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return ai.Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ai.Completion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return ai.Completion{}, fmt.Errorf("openai status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ai.Completion{}, err
	}
	if len(out.Choices) == 0 {
		return ai.Completion{}, errors.New("no choices")
	}
	return ai.Completion{
		Content: strings.TrimSpace(out.Choices[0].Message.Content),
		Tokens:  out.Usage.TotalTokens,
	}, nil
}
