package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/Seedgta1/N8/internal/domain/ai"
	"github.com/Seedgta1/N8/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client generates correction scripts with a chat model behind a circuit breaker.
type Client struct {
	api     *openai.Client
	Model   string
	Timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model, timeout)
}

// NewClientWithConfig allows a custom base URL or HTTP client.
func NewClientWithConfig(cfg openai.ClientConfig, model string, timeout time.Duration) *Client {
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		Model:   model,
		Timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openai",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

// GenerateScript implements ai.ScriptGenerator.
func (c *Client) GenerateScript(ctx context.Context, req ai.ScriptRequest) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, in ai.ScriptRequest) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	model := c.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(in)},
		},
	}
	// reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	script := prompt.ExtractScript(resp.Choices[0].Message.Content)
	if script == "" {
		return "", errors.New("completion contained no script")
	}
	return script, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
