// Package gemini wraps the Gemini API behind the contract's text and
// vision generator interfaces. Every failure mode, including an empty
// candidate list, surfaces as contract.ErrAIUnavailable so callers can
// swap in their deterministic fallbacks.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

type Config struct {
	APIKey  string        `split_words:"true" required:"true"`
	Model   string        `split_words:"true" default:"gemini-2.0-flash"`
	Timeout time.Duration `split_words:"true" default:"30s"`
}

type Client struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

var (
	_ contractx.TextGenerator   = (*Client)(nil)
	_ contractx.VisionGenerator = (*Client)(nil)
)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		client:  client,
		model:   client.GenerativeModel(strings.TrimSpace(cfg.Model)),
		timeout: timeout,
	}, nil
}

func MustNew(ctx context.Context, cfg Config) *Client {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// GenerateText sends a text-only prompt and returns the first candidate's
// text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

// GenerateVision sends a prompt plus raw image bytes. The mime parameter
// is the image subtype ("png", "jpeg").
func (c *Client) GenerateVision(ctx context.Context, prompt, mime string, image []byte) (string, error) {
	return c.generate(ctx, genai.ImageData(mime, image), genai.Text(prompt))
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrAIUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates returned", contractx.ErrAIUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty response", contractx.ErrAIUnavailable)
	}
	return out, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}
