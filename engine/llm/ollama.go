package llm

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/clausewise/clausewise/pkg/config"
)

// GenerationOptions are fixed per process and sent with every request.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
	Seed        int     `json:"seed"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string            `json:"model"`
	Stream   bool              `json:"stream"`
	Options  GenerationOptions `json:"options"`
	Messages []chatMessage     `json:"messages"`
}

// OllamaClient talks to an Ollama chat-completion endpoint.
//
// format:"json" is deliberately not requested: reasoning models need their
// <think> chain to score accurately, and the sanitizer strips it afterwards.
type OllamaClient struct {
	http    *resty.Client
	model   string
	options GenerationOptions
}

func NewOllamaClient(cfg *config.OllamaConfig) *OllamaClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &OllamaClient{
		http:  client,
		model: cfg.Model,
		options: GenerationOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			NumPredict:  cfg.NumPredict,
			Seed:        cfg.Seed,
		},
	}
}

func (c *OllamaClient) Model() string {
	return c.model
}

// Chat performs a single blocking round-trip. A missing message content
// field in the response yields an empty string, not an error.
func (c *OllamaClient) Chat(ctx context.Context, system, user string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:    c.model,
			Stream:   false,
			Options:  c.options,
			Messages: messages,
		}).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("llm: ollama request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("llm: ollama returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return gjson.GetBytes(resp.Body(), "message.content").String(), nil
}
