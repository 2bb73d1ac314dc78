// Package tts provides buffered text-to-speech synthesis.
//
// Synthesis is one request per sentence: the full audio payload is
// accumulated before it is returned, so a sentence's audio is always an
// atomic unit, never partially delivered.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice("alloy"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world.")
//	// result.Audio contains the complete MP3 payload
package tts

import (
	"context"
)

// Provider defines the synthesis provider interface.
type Provider interface {
	// Synthesize converts one sentence to audio, returning the complete
	// audio payload. Failure is surfaced to the caller; the orchestrator
	// decides whether to skip the sentence or abort the cycle.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result for one sentence.
type AudioResult struct {
	// Audio contains the encoded audio payload.
	Audio []byte

	// Format is the audio container format (always FormatMP3 today).
	Format Format

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request round-trip time in milliseconds.
	LatencyMs int64
}

// Format identifies the audio container format of a synthesis result.
type Format string

// FormatMP3 is the fixed output format for synthesized replies.
// Compressed audio keeps binary frames small on slow client links.
const FormatMP3 Format = "mp3"

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
