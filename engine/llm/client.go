package llm

import "context"

// Client is the minimal contract for one chat-completion round-trip.
// Implementations block until the model responds or the transport times
// out; there is no streaming and no transport-level retry.
type Client interface {
	// Chat sends a system and user message pair and returns the raw text
	// of the model's reply. An empty system message is omitted.
	Chat(ctx context.Context, system, user string) (string, error)
	// Model returns the configured model identifier.
	Model() string
}
