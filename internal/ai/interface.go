package ai

import (
	"context"
)

// TextGenerator is a chat-style completion: one system instruction, one user message.
// Implementations are safe for concurrent use.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
