package widget

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

const (
	Greeting      = "Xin chào! 👋 Tôi là trợ lý du lịch Việt Nam. Hỏi tôi về các địa điểm như Hà Nội, Đà Nẵng, Hội An nhé!"
	FallbackReply = "❌ Xin lỗi, có lỗi xảy ra. Vui lòng thử lại!"
)

// ChatService answers a message given the transcript before it.
// The assistant responders and *proxy.Client satisfy this interface.
type ChatService interface {
	Reply(ctx context.Context, message string, history []places.Message) (string, error)
}

// Chat is a transcript seeded with an assistant greeting.
type Chat struct {
	svc ChatService
	log *slog.Logger

	mu         sync.Mutex
	transcript []places.Message
	loading    bool
}

func NewChat(svc ChatService, log *slog.Logger) *Chat {
	return &Chat{
		svc:        svc,
		log:        log,
		transcript: []places.Message{{Role: places.RoleAssistant, Content: Greeting}},
	}
}

// Transcript returns a copy of the conversation so far.
func (c *Chat) Transcript() []places.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transcript)
}

func (c *Chat) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Send appends message and then the assistant's reply. When the service
// fails the fixed FallbackReply is appended instead and no error is returned.
// Blank messages and sends while a reply is pending are ignored.
func (c *Chat) Send(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyInput
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return "", ErrBusy
	}
	history := slices.Clone(c.transcript)
	c.transcript = append(c.transcript, places.Message{Role: places.RoleUser, Content: message})
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	reply, err := c.svc.Reply(ctx, message, history)
	if err != nil || strings.TrimSpace(reply) == "" {
		c.log.Warn("chat reply failed", "err", err)
		reply = FallbackReply
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, places.Message{Role: places.RoleAssistant, Content: reply})
	c.mu.Unlock()

	return reply, nil
}
