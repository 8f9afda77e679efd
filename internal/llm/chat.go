// ABOUTME: Chat completion client used to answer questions from retrieved context
// ABOUTME: Streams tokens to a writer or returns a single response, depending on configuration
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/ragdoc/internal/util"
)

// DefaultChatModel is a small reasoning model available through Ollama
const DefaultChatModel = "deepseek-r1:1.5b"

// ChatConfig configures a ChatClient
type ChatConfig struct {
	ClientConfig
	Model       string
	Stream      bool
	Temperature float32
}

// DefaultChatConfig returns non-streaming settings for the default model
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		ClientConfig: DefaultClientConfig(),
		Model:        DefaultChatModel,
		Temperature:  0.1,
	}
}

// ChatClient sends a single prompt and collects the model's answer
type ChatClient struct {
	client *openai.Client
	cfg    ChatConfig
}

// NewChatClient creates a chat client
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.Model == "" {
		return nil, errors.New("chat model is required")
	}
	return &ChatClient{client: newOpenAIClient(cfg.ClientConfig), cfg: cfg}, nil
}

// Model returns the chat model name
func (c *ChatClient) Model() string {
	return c.cfg.Model
}

// Complete sends prompt as a user message and returns the full answer.
// When w is non-nil the answer is also written to it, token by token in
// streaming mode. Streaming responses are not retried once output began.
func (c *ChatClient) Complete(ctx context.Context, prompt string, w io.Writer) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
	}

	if c.cfg.Stream {
		return c.stream(ctx, req, w)
	}

	var answer string
	err := util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat after %d attempts: %w", c.cfg.MaxRetries+1, err)
	}

	if w != nil {
		if _, err := io.WriteString(w, answer); err != nil {
			return answer, fmt.Errorf("writing answer: %w", err)
		}
	}
	return answer, nil
}

func (c *ChatClient) stream(ctx context.Context, req openai.ChatCompletionRequest, w io.Writer) (string, error) {
	req.Stream = true

	var stream *openai.ChatCompletionStream
	err := util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		s, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return classify(err)
		}
		stream = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to open chat stream: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), fmt.Errorf("reading chat stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		sb.WriteString(token)
		if w != nil && token != "" {
			if _, err := io.WriteString(w, token); err != nil {
				return sb.String(), fmt.Errorf("writing answer: %w", err)
			}
		}
	}
}
