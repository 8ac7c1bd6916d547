package ai

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every failure mode of a model call: transport
// errors, quota exhaustion, or an unusable response. Callers degrade to
// their deterministic paths instead of aborting.
var ErrUnavailable = errors.New("ai: model unavailable")

// TextCompleter is the one capability the pipeline needs from a language
// model: a prompt in, text out, no state held between calls.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
