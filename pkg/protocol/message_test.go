package protocol

import (
	"encoding/json"
	"testing"
)

func TestBotText(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
	}{
		{"plain", "Hello there."},
		{"quotes", `He said "hi" to me.`},
		{"unicode", "Привіт, світе!"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := BotText(tt.sentence)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			msg, err := Parse(data)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if msg.Type != TypeBotText {
				t.Errorf("expected type bot_text, got %s", msg.Type)
			}
			if msg.Data != tt.sentence {
				t.Errorf("expected data %q, got %q", tt.sentence, msg.Data)
			}
		})
	}
}

func TestBotTextWireFormat(t *testing.T) {
	data, err := BotText("Hi.")
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["type"] != "bot_text" {
		t.Errorf("expected type field bot_text, got %v", raw["type"])
	}
	if raw["data"] != "Hi." {
		t.Errorf("expected data field, got %v", raw["data"])
	}
}

func TestTTSEnd(t *testing.T) {
	data := TTSEnd()

	if string(data) != `{"type":"tts_end"}` {
		t.Errorf("unexpected tts_end frame: %s", data)
	}

	msg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if msg.Type != TypeTTSEnd {
		t.Errorf("expected type tts_end, got %s", msg.Type)
	}
	if msg.Data != "" {
		t.Errorf("expected empty data, got %q", msg.Data)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
