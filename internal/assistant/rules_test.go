package assistant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vietnam-poi-finder/internal/assistant"
)

func TestRules_Reply(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"english greeting", "Hello there", "Xin chào! 👋"},
		{"short greeting with punctuation", "hi!", "Xin chào! 👋"},
		{"vietnamese greeting", "Xin chào", "Xin chào bạn!"},
		{"hanoi ascii", "What to see in HANOI?", "Hà Nội là thủ đô"},
		{"hanoi vietnamese", "Hà Nội có gì đẹp", "Hà Nội là thủ đô"},
		{"hcmc is not a greeting", "Tell me about Ho Chi Minh city", "TP. Hồ Chí Minh"},
		{"saigon", "saigon nightlife", "Sài Gòn (TP.HCM)"},
		{"da nang", "Da Nang beaches", "Đà Nẵng có bãi biển"},
		{"hoi an vietnamese", "đi Hội An", "Hội An là phố cổ"},
		{"pho", "where can I eat phở?", "Phở là món ăn"},
		{"weather", "what's the weather like", "Bạn có thể tìm kiếm"},
		{"help", "help", "Tôi có thể giúp bạn"},
		{"earlier rule wins", "hello, how is hanoi?", "Xin chào! 👋"},
	}

	r := assistant.NewRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Reply(context.Background(), tt.message, nil)
			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestRules_Default(t *testing.T) {
	r := assistant.NewRules()
	for _, msg := range []string{"", "   ", "which train goes north", "photography spots"} {
		got, err := r.Reply(context.Background(), msg, nil)
		require.NoError(t, err)
		assert.Equal(t, assistant.DefaultReply, got, "message %q", msg)
	}
}
