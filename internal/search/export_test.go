package search

import (
	"context"
	"time"
)

// SetSleep replaces the retry sleep so tests can observe delays without waiting.
func (o *Orchestrator) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	o.sleep = fn
}
