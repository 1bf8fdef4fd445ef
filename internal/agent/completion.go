package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
	"github.com/droverhq/drover/internal/ratelimit"
)

// DefaultCompletionBaseURL is the production model API endpoint.
const DefaultCompletionBaseURL = "https://api.anthropic.com"

const apiVersion = "2023-06-01"

// Completer produces one model completion for a system prompt and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompletionClient calls a messages-style completion API. Every call first
// acquires a token from the shared rate limiter, so concurrent agents cannot
// exceed the provider's request budget.
type CompletionClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	limiter   *ratelimit.Limiter
	http      *httpx.Client
	logger    zerolog.Logger
}

// CompletionOption configures a CompletionClient.
type CompletionOption func(*CompletionClient)

// WithCompletionBaseURL overrides the API endpoint (used by tests).
func WithCompletionBaseURL(u string) CompletionOption {
	return func(c *CompletionClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithModel overrides the model identifier.
func WithModel(model string) CompletionOption {
	return func(c *CompletionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the completion token ceiling.
func WithMaxTokens(n int) CompletionOption {
	return func(c *CompletionClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithCompletionHTTPClient substitutes the secure request wrapper. The wrapper
// passed in controls the completion timeout.
func WithCompletionHTTPClient(hc *httpx.Client) CompletionOption {
	return func(c *CompletionClient) { c.http = hc }
}

// WithCompletionLogger attaches a logger.
func WithCompletionLogger(logger zerolog.Logger) CompletionOption {
	return func(c *CompletionClient) {
		c.logger = logger.With().Str("component", "completion").Logger()
	}
}

// NewCompletionClient creates a completion client. The limiter is shared by
// every agent in the process and must not be nil.
func NewCompletionClient(apiKey string, limiter *ratelimit.Limiter, opts ...CompletionOption) *CompletionClient {
	c := &CompletionClient{
		baseURL:   DefaultCompletionBaseURL,
		apiKey:    apiKey,
		model:     constants.DefaultModel,
		maxTokens: constants.DefaultMaxOutputTokens,
		limiter:   limiter,
		http:      httpx.NewClient(httpx.WithTimeout(constants.DefaultCompletionTimeout)),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends one completion request and returns the concatenated text
// blocks of the response. Fails with ErrEmptyCompletion when the response
// carries no text.
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", errors.Wrap(err, "waiting for rate limiter")
	}

	payload, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding completion request")
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.DoOK(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "completion request")
	}
	defer func() { _ = resp.Body.Close() }()

	var body messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "decoding completion response")
	}

	var texts []string
	for _, block := range body.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return "", errors.Wrap(errors.ErrEmptyCompletion, "response had no text content")
	}

	out := strings.Join(texts, "\n")
	c.logger.Debug().Int("chars", len(out)).Str("model", c.model).Msg("completion received")
	return out, nil
}
