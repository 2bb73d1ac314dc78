package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("OPENAI_API_KEY", "oa-test")
}

func TestLoadDefaults(t *testing.T) {
	testEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Deepgram.Model != "nova-3" {
		t.Errorf("expected default model nova-3, got %s", cfg.Deepgram.Model)
	}
	if cfg.Deepgram.SampleRate != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Deepgram.SampleRate)
	}
	if cfg.Deepgram.KeepAliveSeconds != 5 {
		t.Errorf("expected default keepalive 5s, got %d", cfg.Deepgram.KeepAliveSeconds)
	}
	if cfg.OpenAI.Voice != "alloy" {
		t.Errorf("expected default voice alloy, got %s", cfg.OpenAI.Voice)
	}
	if cfg.Session.MaxSentenceLength != 200 {
		t.Errorf("expected default max sentence length 200, got %d", cfg.Session.MaxSentenceLength)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	testEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Deepgram.APIKey != "dg-test" {
		t.Errorf("expected deepgram key from env, got %q", cfg.Deepgram.APIKey)
	}
	if cfg.OpenAI.APIKey != "oa-test" {
		t.Errorf("expected openai key from env, got %q", cfg.OpenAI.APIKey)
	}
}

func TestLoadFile(t *testing.T) {
	testEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9000"
deepgram:
  url: "wss://api.deepgram.com/v1/listen"
  model: "nova-3"
  language: "en-US"
  sample_rate: 16000
  channels: 1
  keepalive_seconds: 5
  audio_buffer_frames: 128
openai:
  chat_model: "gpt-4o-mini"
  tts_model: "tts-1"
  voice: "coral"
  timeout_seconds: 30
  max_retries: 2
session:
  max_sentence_length: 160
  outbound_buffer_frames: 32
logging:
  level: "debug"
  format: "json"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("expected address :9000, got %s", cfg.Server.Address)
	}
	if cfg.Deepgram.AudioBufferFrames != 128 {
		t.Errorf("expected 128 buffer frames, got %d", cfg.Deepgram.AudioBufferFrames)
	}
	if cfg.OpenAI.Voice != "coral" {
		t.Errorf("expected voice coral, got %s", cfg.OpenAI.Voice)
	}
	if cfg.Session.MaxSentenceLength != 160 {
		t.Errorf("expected max sentence length 160, got %d", cfg.Session.MaxSentenceLength)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	testEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Deepgram.Model != "nova-3" {
		t.Errorf("expected defaults for missing file, got model %s", cfg.Deepgram.Model)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults with keys",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing deepgram key",
			mutate:  func(c *Config) { c.Deepgram.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing openai key",
			mutate:  func(c *Config) { c.OpenAI.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Deepgram.SampleRate = 0 },
			wantErr: true,
		},
		{
			name:    "zero keepalive",
			mutate:  func(c *Config) { c.Deepgram.KeepAliveSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "zero audio buffer",
			mutate:  func(c *Config) { c.Deepgram.AudioBufferFrames = 0 },
			wantErr: true,
		},
		{
			name:    "empty address",
			mutate:  func(c *Config) { c.Server.Address = "" },
			wantErr: true,
		},
		{
			name:    "zero sentence length",
			mutate:  func(c *Config) { c.Session.MaxSentenceLength = 0 },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.OpenAI.MaxRetries = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Deepgram.APIKey = "dg"
			cfg.OpenAI.APIKey = "oa"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
