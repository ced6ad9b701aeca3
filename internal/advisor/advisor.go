// Package advisor turns an assembled forecast prompt into literary
// prose through the OpenAI chat completions API. The whole package is
// optional: without an API key the bot falls back to the templated
// report.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

var ErrDisabled = errors.New("advisor disabled: no API key configured")

const defaultModel = openai.ChatModelGPT4oMini

type Advisor struct {
	tracer  trace.Tracer
	client  openai.Client
	model   string
	enabled bool
}

// New builds an advisor. An empty apiKey yields a disabled advisor
// whose Generate always returns ErrDisabled; baseURL overrides the
// API endpoint and is mainly for tests.
func New(tracer trace.Tracer, apiKey, model, baseURL string) *Advisor {
	if strings.TrimSpace(apiKey) == "" {
		return &Advisor{tracer: tracer}
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	return &Advisor{
		tracer:  tracer,
		client:  openai.NewClient(opts...),
		model:   model,
		enabled: true,
	}
}

func (a *Advisor) Enabled() bool { return a != nil && a.enabled }

// Generate sends the prompt and returns the model's forecast text.
func (a *Advisor) Generate(ctx context.Context, prompt string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}

	ctx, span := a.tracer.Start(ctx, "advisor.generate")
	defer span.End()

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return text, nil
}
