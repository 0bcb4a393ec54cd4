// Package intent classifies chat messages, asking an LLM when one is
// configured and falling back to keyword matching otherwise.
package intent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"hostguard/internal/chat/models"
	"hostguard/internal/platform/config"
)

const systemPrompt = `You are an intent classifier for a security incident management system.

Classify the user's message into one of these intents:
- verify: User wants to verify/check someone (e.g., "verify KRA PIN", "check client")
- report: User wants to report an incident or issue
- view: User wants to view/list something (e.g., "show incidents", "list reports")
- help: User is asking for help or information
- unknown: Intent doesn't fit any category

Return ONLY the intent ID, nothing else.`

// Checked in order; the first intent with a matching keyword wins.
var keywords = []struct {
	intent models.Intent
	words  []string
}{
	{models.IntentVerify, []string{"verify", "verification", "check", "validate"}},
	{models.IntentReport, []string{"report", "incident", "issue", "problem"}},
	{models.IntentView, []string{"view", "show", "list", "see", "get"}},
	{models.IntentHelp, []string{"help", "how", "what", "info"}},
}

// Keywords classifies text by keyword alone.
func Keywords(text string) models.Intent {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.intent
			}
		}
	}
	return models.IntentUnknown
}

// Classifier asks an OpenAI chat model for the intent.
type Classifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Classifier)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// New returns a classifier. Without an API key it classifies by keyword only.
func New(cfg config.Intent, opts ...Option) *Classifier {
	c := &Classifier{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  slog.Default(),
	}
	if cfg.OpenAIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		c.client = openai.NewClientWithConfig(clientCfg)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never fails: model errors fall back to keywords.
func (c *Classifier) Classify(ctx context.Context, text string) models.Intent {
	if c.client == nil {
		return Keywords(text)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "intent model call failed, using keywords", "error", err)
		return Keywords(text)
	}
	if len(resp.Choices) == 0 {
		return Keywords(text)
	}
	return models.ParseIntent(resp.Choices[0].Message.Content)
}
