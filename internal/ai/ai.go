// Package ai defines the normalized contract every vision provider
// implements. Providers only perform the raw HTTP call; response parsing,
// confidence estimation, timing, and failure conversion all happen here so
// the policy is identical across providers and results stay comparable.
package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Response is the normalized result of one drawing analysis. Failures are
// encoded in the value (Success=false plus ErrorMessage); a Response is
// always produced, never an error.
//
// Invariant: Success implies GuessIndex != nil.
type Response struct {
	Success      bool    `json:"success"`
	GuessIndex   *int    `json:"guessIndex"`
	GuessText    *string `json:"guessText"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	LatencyMS    int64   `json:"latencyMs"`
	TokensUsed   *int    `json:"tokensUsed,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// Request describes one drawing to analyze.
type Request struct {
	Prompt     string   // rendered template, see internal/prompt
	ImageData  string   // base64-encoded PNG
	Candidates []string // the options the prompt was rendered from
	Model      string   // optional model override
}

// Completion is the raw provider output before normalization.
type Completion struct {
	Content string
	Tokens  int // total tokens, 0 when the provider did not report usage
}

// ModelInfo identifies a provider configuration for logging and metrics.
type ModelInfo struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Type      string `json:"type"`
	MaxTokens int    `json:"maxTokens"`
}

// Vision is the raw provider capability. Implementations live in the
// per-provider subpackages and should not parse model output themselves.
type Vision interface {
	Invoke(ctx context.Context, prompt, imageData, model string) (Completion, error)
	Provider() string
	DefaultModel() string
	ModelInfo() ModelInfo
}

// Client wraps a Vision with rate limiting and the shared normalization.
type Client struct {
	vision  Vision
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient builds a Client. maxRPS caps outbound provider calls; pass 0 to
// disable limiting.
func NewClient(v Vision, maxRPS float64) *Client {
	c := &Client{vision: v, now: time.Now}
	if maxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(maxRPS), 1)
	}
	return c
}

func (c *Client) Provider() string     { return c.vision.Provider() }
func (c *Client) ModelInfo() ModelInfo { return c.vision.ModelInfo() }

// Analyze runs one analysis and always returns a normalized Response.
// Provider, network, and timeout errors are converted to Success=false with
// the cause in ErrorMessage.
func (c *Client) Analyze(ctx context.Context, req Request) Response {
	start := c.now()
	model := req.Model
	if model == "" {
		model = c.vision.DefaultModel()
	}

	fail := func(err error) Response {
		return Response{
			Provider:     c.vision.Provider(),
			Model:        model,
			LatencyMS:    c.now().Sub(start).Milliseconds(),
			ErrorMessage: err.Error(),
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(err)
		}
	}

	comp, err := c.vision.Invoke(ctx, req.Prompt, req.ImageData, model)
	if err != nil {
		return fail(err)
	}

	idx, reasoning := ParseGuess(comp.Content)
	resp := Response{
		Success:    idx != nil,
		GuessIndex: idx,
		Confidence: EstimateConfidence(comp.Content),
		Reasoning:  reasoning,
		Provider:   c.vision.Provider(),
		Model:      model,
		LatencyMS:  c.now().Sub(start).Milliseconds(),
	}
	if comp.Tokens > 0 {
		tokens := comp.Tokens
		resp.TokensUsed = &tokens
	}
	// An out-of-range index leaves Success as parsed; only GuessText is
	// withheld. See ParseGuess.
	if idx != nil && *idx >= 0 && *idx < len(req.Candidates) {
		text := req.Candidates[*idx]
		resp.GuessText = &text
	}
	return resp
}
