package llm

import (
	"context"
	"sync"
)

// Mock implements Generator for testing with a fixed token script.
type Mock struct {
	// Tokens is the script returned for every StreamReply call.
	Tokens []string

	mu         sync.Mutex
	utterances []string
}

// NewMock creates a mock generator that replies with the given tokens.
func NewMock(tokens ...string) *Mock {
	return &Mock{Tokens: tokens}
}

// StreamReply records the utterance and returns the scripted stream.
func (m *Mock) StreamReply(ctx context.Context, utterance string) TokenStream {
	m.mu.Lock()
	m.utterances = append(m.utterances, utterance)
	m.mu.Unlock()
	return NewStaticStream(m.Tokens...)
}

// Utterances returns all utterances passed to StreamReply.
func (m *Mock) Utterances() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.utterances))
	copy(out, m.utterances)
	return out
}

// Verify interface at compile time.
var _ Generator = (*Mock)(nil)
