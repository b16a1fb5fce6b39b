// Package compose turns a list of plain facts into a short notification
// message worded for the selected tone.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	config "vigil0/app/configs"
	"vigil0/app/core/persona"
)

// Composer renders facts into message text. Implementations must not invent
// facts beyond the ones given.
type Composer interface {
	Compose(ctx context.Context, facts []string, style persona.Style) (string, error)
}

// OpenAI is the model-backed composer.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAI(cfg config.ComposerConfig) (*OpenAI, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, fmt.Errorf("composer: %s is not set", keyEnv)
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

const systemPrompt = `You are a quiet desk-side assistant. Rewrite the given facts as one short
proactive notification. Use every fact, add nothing that is not in the facts,
and keep it under three sentences.`

func (o *OpenAI) Compose(ctx context.Context, facts []string, style persona.Style) (string, error) {
	if len(facts) == 0 {
		return "", errors.New("compose: no facts")
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var b strings.Builder
	b.WriteString("Tone: ")
	b.WriteString(style.Name)
	b.WriteString(". ")
	b.WriteString(style.Directive)
	b.WriteString("\nFacts:\n")
	for _, fact := range facts {
		b.WriteString("- ")
		b.WriteString(fact)
		b.WriteString("\n")
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("compose: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("compose: empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("compose: blank completion")
	}
	return text, nil
}

// Static is a fallback composer that joins facts verbatim. It backs the
// pipeline when no model is configured and keeps tests offline.
type Static struct{}

func (Static) Compose(ctx context.Context, facts []string, style persona.Style) (string, error) {
	if len(facts) == 0 {
		return "", errors.New("compose: no facts")
	}
	return strings.Join(facts, " "), nil
}
