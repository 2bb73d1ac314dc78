// Package protocol defines the WebSocket frame types sent to voicepipe clients.
//
// Three kinds of frames reach the client: raw transcription JSON passed
// through from the speech-to-text engine (for live captions), the text
// frames defined here, and binary frames carrying synthesized audio.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the type of an outbound text frame.
type MessageType string

const (
	// TypeBotText announces the sentence about to be spoken.
	// The matching audio follows as the next binary frame for this cycle.
	TypeBotText MessageType = "bot_text"

	// TypeTTSEnd marks the end of a response cycle. All sentences and
	// their audio for the cycle have been delivered.
	TypeTTSEnd MessageType = "tts_end"
)

// Message is an outbound text frame.
type Message struct {
	Type MessageType `json:"type"`
	Data string      `json:"data,omitempty"`
}

// BotText encodes a bot_text frame for one sentence.
func BotText(sentence string) ([]byte, error) {
	data, err := json.Marshal(Message{Type: TypeBotText, Data: sentence})
	if err != nil {
		return nil, fmt.Errorf("marshal bot_text frame: %w", err)
	}
	return data, nil
}

// TTSEnd encodes the cycle completion marker.
func TTSEnd() []byte {
	// Static frame; cannot fail to marshal.
	data, _ := json.Marshal(Message{Type: TypeTTSEnd})
	return data
}

// Parse decodes an outbound text frame. Used by tests and clients.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	return &msg, nil
}
