// Package widget holds the translator and chat widgets. Each keeps its own
// loading and error state and never touches the search session.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBusy       = errors.New("a request is already in progress")
)

// The translator works on a fixed language pair.
const (
	SourceLang = "en"
	TargetLang = "vi"
)

const (
	MsgEmptyInput      = "Please enter text to translate"
	MsgTranslateFailed = "Failed to translate. Please try again."
)

// TranslationService translates text between two language codes.
// *places.MyMemoryClient and *proxy.Client satisfy this interface.
type TranslationService interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TranslatorState is what the translator widget displays.
type TranslatorState struct {
	Input   string
	Output  string
	Loading bool
	Error   string
}

type Translator struct {
	svc TranslationService
	log *slog.Logger

	mu    sync.Mutex
	state TranslatorState
}

func NewTranslator(svc TranslationService, log *slog.Logger) *Translator {
	return &Translator{svc: svc, log: log}
}

func (t *Translator) State() TranslatorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Translate translates text from SourceLang to TargetLang. Empty input sets
// an inline message without calling the service; a failed call sets the
// generic failure message. There is no retry.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	t.mu.Lock()
	if t.state.Loading {
		t.mu.Unlock()
		return "", ErrBusy
	}
	t.state.Input = text
	if strings.TrimSpace(text) == "" {
		t.state.Output = ""
		t.state.Error = MsgEmptyInput
		t.mu.Unlock()
		return "", ErrEmptyInput
	}
	t.state.Loading = true
	t.state.Error = ""
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.state.Loading = false
		t.mu.Unlock()
	}()

	out, err := t.svc.Translate(ctx, text, SourceLang, TargetLang)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.log.Warn("translation failed", "err", err)
		t.state.Output = ""
		t.state.Error = MsgTranslateFailed
		return "", fmt.Errorf("translating: %w", err)
	}
	t.state.Output = out
	return out, nil
}
