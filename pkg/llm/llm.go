// Package llm streams generated replies for finalized user utterances.
//
// The generator contract is deliberately forgiving: StreamReply never
// surfaces an error to the caller. Any failure, at connect time or
// mid-stream, is replaced by a fallback apology token so the downstream
// sentence/synthesis pipeline always sees a well-formed, terminating
// token sequence.
package llm

import (
	"context"
	"io"
)

// SystemInstruction constrains the assistant's tone for every reply.
const SystemInstruction = "You are a concise, helpful interview assistant. Keep responses short and speak naturally."

// FallbackReply is spoken to the user when generation fails.
const FallbackReply = "Sorry, I encountered an error processing your request."

// Generator produces a streamed reply for one user utterance.
type Generator interface {
	StreamReply(ctx context.Context, utterance string) TokenStream
}

// TokenStream is a finite, ordered sequence of text tokens.
// Recv returns io.EOF after the last token. Tokens must be consumed in
// order; the stream is not safe for concurrent receivers.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// staticStream yields a fixed token script. Used for the fallback reply
// and by the mock generator.
type staticStream struct {
	tokens []string
	pos    int
}

// NewStaticStream returns a TokenStream over a fixed token sequence.
func NewStaticStream(tokens ...string) TokenStream {
	return &staticStream{tokens: tokens}
}

func (s *staticStream) Recv() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *staticStream) Close() error {
	s.pos = len(s.tokens)
	return nil
}
