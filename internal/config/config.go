// Package config loads and validates voicepipe service configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// for secrets, so API keys never need to live on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Deepgram DeepgramConfig `yaml:"deepgram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains the HTTP/WebSocket listener configuration.
type ServerConfig struct {
	Address string `yaml:"address"`
	Debug   bool   `yaml:"debug"`
}

// DeepgramConfig contains the live transcription engine configuration.
type DeepgramConfig struct {
	APIKey     string `yaml:"api_key"`
	URL        string `yaml:"url"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`

	// KeepAliveSeconds is the interval between KeepAlive messages on the
	// transcription socket. Deepgram closes idle connections after ~10s.
	KeepAliveSeconds int `yaml:"keepalive_seconds"`

	// AudioBufferFrames bounds the inbound audio queue per session.
	// Producers block when the queue is full; frames are never dropped.
	AudioBufferFrames int `yaml:"audio_buffer_frames"`
}

// OpenAIConfig contains generation and synthesis engine configuration.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	ChatModel      string `yaml:"chat_model"`
	TTSModel       string `yaml:"tts_model"`
	Voice          string `yaml:"voice"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// SessionConfig contains per-session pipeline tuning.
type SessionConfig struct {
	// MaxSentenceLength forces a sentence flush when the accumulator
	// buffer grows past this many characters without terminal punctuation.
	MaxSentenceLength int `yaml:"max_sentence_length"`

	// OutboundBufferFrames bounds the per-session outbound frame queue.
	OutboundBufferFrames int `yaml:"outbound_buffer_frames"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration defaults used when a field is absent.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Deepgram: DeepgramConfig{
			URL:               "wss://api.deepgram.com/v1/listen",
			Model:             "nova-3",
			Language:          "en-US",
			SampleRate:        16000,
			Channels:          1,
			KeepAliveSeconds:  5,
			AudioBufferFrames: 64,
		},
		OpenAI: OpenAIConfig{
			ChatModel:      "gpt-4o-mini",
			TTSModel:       "tts-1",
			Voice:          "alloy",
			TimeoutSeconds: 60,
			MaxRetries:     3,
		},
		Session: SessionConfig{
			MaxSentenceLength:    200,
			OutboundBufferFrames: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path, applies environment overrides,
// and validates the result. A missing file is not an error; defaults plus
// environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env + defaults
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
// Secrets are environment-first so they stay out of config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		c.Deepgram.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("VOICEPIPE_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("VOICEPIPE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Deepgram.Validate(); err != nil {
		return fmt.Errorf("deepgram config: %w", err)
	}
	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("openai config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if c.Server.Address == "" {
		return errors.New("server config: address cannot be empty")
	}
	return nil
}

// Validate validates the Deepgram configuration.
func (d *DeepgramConfig) Validate() error {
	if d.APIKey == "" {
		return errors.New("api_key is required (set DEEPGRAM_API_KEY)")
	}
	if d.URL == "" {
		return errors.New("url cannot be empty")
	}
	if d.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", d.SampleRate)
	}
	if d.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", d.Channels)
	}
	if d.KeepAliveSeconds <= 0 {
		return fmt.Errorf("keepalive_seconds must be positive, got %d", d.KeepAliveSeconds)
	}
	if d.AudioBufferFrames <= 0 {
		return fmt.Errorf("audio_buffer_frames must be positive, got %d", d.AudioBufferFrames)
	}
	return nil
}

// KeepAliveInterval returns the keep-alive interval as a duration.
func (d *DeepgramConfig) KeepAliveInterval() time.Duration {
	return time.Duration(d.KeepAliveSeconds) * time.Second
}

// Validate validates the OpenAI configuration.
func (o *OpenAIConfig) Validate() error {
	if o.APIKey == "" {
		return errors.New("api_key is required (set OPENAI_API_KEY)")
	}
	if o.ChatModel == "" {
		return errors.New("chat_model cannot be empty")
	}
	if o.TTSModel == "" {
		return errors.New("tts_model cannot be empty")
	}
	if o.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", o.TimeoutSeconds)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", o.MaxRetries)
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (o *OpenAIConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Validate validates the session configuration.
func (s *SessionConfig) Validate() error {
	if s.MaxSentenceLength <= 0 {
		return fmt.Errorf("max_sentence_length must be positive, got %d", s.MaxSentenceLength)
	}
	if s.OutboundBufferFrames <= 0 {
		return fmt.Errorf("outbound_buffer_frames must be positive, got %d", s.OutboundBufferFrames)
	}
	return nil
}
