package llm

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/fitplan/internal/generator"

	"github.com/rs/zerolog"
)

// Invoker runs a prompt against the model, asking for JSON mode first and
// falling back once to a plain request when the endpoint rejects it.
type Invoker struct {
	completer   Completer
	maxTokens   int
	temperature float64
	logger      zerolog.Logger
}

// NewInvoker creates an invoker with the given token budget and temperature.
func NewInvoker(completer Completer, maxTokens int, temperature float64, logger zerolog.Logger) *Invoker {
	return &Invoker{
		completer:   completer,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger.With().Str("component", "model_invoker").Logger(),
	}
}

// Invoke returns the model's text. Only a rejected response_format parameter
// triggers the retry; every other error is returned as is.
func (i *Invoker) Invoke(ctx context.Context, prompt generator.Prompt) (*Completion, error) {
	messages := []Message{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.User},
	}

	out, err := i.completer.Complete(ctx, CompletionRequest{
		Messages:    messages,
		JSONMode:    true,
		MaxTokens:   i.maxTokens,
		Temperature: i.temperature,
	})
	if err != nil && isResponseFormatError(err) {
		i.logger.Warn().Err(err).Msg("JSON mode rejected by model endpoint, retrying without it")

		fallback := append(messages[:len(messages):len(messages)], Message{Role: "system", Content: generator.JSONOnlyInstruction})
		out, err = i.completer.Complete(ctx, CompletionRequest{
			Messages:    fallback,
			MaxTokens:   i.maxTokens,
			Temperature: i.temperature,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}
	if out == nil || strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("model completion: %w", ErrEmptyResponse)
	}
	return out, nil
}

func isResponseFormatError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "response_format")
}
