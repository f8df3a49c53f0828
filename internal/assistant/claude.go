package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 512
	// maxHistory bounds how many prior turns are sent with each request.
	maxHistory = 20
)

const systemPrompt = `You are a friendly Vietnam travel assistant inside a map app.
Answer briefly (at most four sentences) about places, food, culture and weather in Vietnam.
Reply in Vietnamese unless the user writes in another language. Use an emoji or two.`

// Claude answers with the Anthropic Messages API and falls back to another
// Responder when the call fails.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	fallback  Responder
	log       *slog.Logger
}

// NewClaude constructs a Claude responder. opts are passed to the SDK client.
func NewClaude(apiKey, model string, fallback Responder, log *slog.Logger, opts ...option.RequestOption) *Claude {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
		fallback:  fallback,
		log:       log,
	}
}

func (c *Claude) Reply(ctx context.Context, message string, history []places.Message) (string, error) {
	reply, err := c.complete(ctx, message, history)
	if err == nil {
		return reply, nil
	}

	if c.fallback == nil {
		return "", fmt.Errorf("%w: %v", places.ErrChatFailed, err)
	}
	c.log.Warn("claude reply failed, using fallback", "err", err)
	return c.fallback.Reply(ctx, message, history)
}

func (c *Claude) complete(ctx context.Context, message string, history []places.Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  toMessageParams(history, message),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return "", fmt.Errorf("empty response from claude")
	}
	return reply, nil
}

// toMessageParams converts the transcript to alternating user/assistant turns
// starting with a user turn. Consecutive turns by the same role are merged.
func toMessageParams(history []places.Message, message string) []anthropic.MessageParam {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	turns := make([]places.Message, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, places.Message{Role: places.RoleUser, Content: message})

	var out []anthropic.MessageParam
	lastRole := ""
	for _, m := range turns {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := places.RoleUser
		if m.Role == places.RoleAssistant {
			role = places.RoleAssistant
		}
		if len(out) == 0 && role != places.RoleUser {
			continue
		}

		block := anthropic.NewTextBlock(content)
		if role == lastRole {
			out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			continue
		}

		if role == places.RoleUser {
			out = append(out, anthropic.NewUserMessage(block))
		} else {
			out = append(out, anthropic.NewAssistantMessage(block))
		}
		lastRole = role
	}
	return out
}
