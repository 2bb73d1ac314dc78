// Package stt bridges a session's audio stream to a live transcription engine.
//
// One Stream is opened per session and lives for the whole connection. Audio
// frames go up; transcript events come back down. A stream failure is fatal
// for that session's transcription only, never for the process; there is no
// automatic reconnect.
package stt

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors.
var (
	// ErrStreamClosed is returned when sending audio to a closed stream.
	ErrStreamClosed = errors.New("stt: stream closed")

	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")
)

// EventResults is the engine event type carrying transcript alternatives.
const EventResults = "Results"

// Event is one message from the transcription engine.
// Raw holds the original JSON so it can be passed through to clients
// unmodified for live caption rendering.
type Event struct {
	Type       string
	Transcript string
	IsFinal    bool
	Raw        []byte
}

// Service starts live transcription streams.
type Service interface {
	Start(ctx context.Context) (Stream, error)
}

// Stream is one live transcription connection.
type Stream interface {
	// SendAudio forwards one raw audio frame. It blocks while the audio
	// queue is full and fails once the stream is closed.
	SendAudio(ctx context.Context, frame []byte) error

	// Events delivers parsed engine events in arrival order.
	// The channel closes when the stream terminates.
	Events() <-chan Event

	// Err reports the terminal stream error, if any, after Events closes.
	Err() error

	// Close tears the stream down. Idempotent.
	Close() error
}

// resultEnvelope mirrors the engine's Results message shape.
type resultEnvelope struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseEvent decodes an engine message into an Event.
// Messages that are not Results (SpeechStarted, UtteranceEnd, Metadata)
// keep their type but carry no transcript. Unparseable payloads are still
// emitted with Raw intact so pass-through keeps working.
func parseEvent(data []byte) Event {
	ev := Event{Raw: data}

	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ev
	}

	ev.Type = env.Type
	if env.Type == EventResults && len(env.Channel.Alternatives) > 0 {
		ev.Transcript = env.Channel.Alternatives[0].Transcript
		ev.IsFinal = env.IsFinal
	}
	return ev
}
