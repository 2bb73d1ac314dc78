package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Config holds OpenAI generation configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests and proxies

	// OnFallback is invoked whenever a failure is recovered with the
	// fallback reply. Used to feed metrics; may be nil.
	OnFallback func()

	Logger     *slog.Logger
	HTTPClient *http.Client
}

// OpenAI generates replies via the chat completions streaming API.
type OpenAI struct {
	client     *openai.Client
	model      string
	onFallback func()
	logger     *slog.Logger
}

// NewOpenAI creates an OpenAI reply generator.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		onFallback: cfg.OnFallback,
		logger:     cfg.Logger.With("component", "llm.openai"),
	}, nil
}

// StreamReply opens a fresh streaming completion for one utterance.
// It never fails: a connect error yields the fallback stream directly.
func (g *OpenAI) StreamReply(ctx context.Context, utterance string) TokenStream {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
		Stream: true,
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		g.logger.Warn("generation request failed, using fallback", "error", err)
		g.recovered()
		return NewStaticStream(FallbackReply)
	}

	return &openaiStream{
		inner:     stream,
		onFailure: g.recovered,
		logger:    g.logger,
	}
}

func (g *OpenAI) recovered() {
	if g.onFallback != nil {
		g.onFallback()
	}
}

// chunkReceiver is the slice of *openai.ChatCompletionStream we depend on.
// Narrowing to an interface lets tests inject mid-stream failures.
type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// openaiStream adapts the completion stream to TokenStream, converting any
// mid-stream failure into the fallback token followed by clean termination.
type openaiStream struct {
	inner     chunkReceiver
	onFailure func()
	logger    *slog.Logger
	done      bool
}

func (s *openaiStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			s.logger.Warn("generation stream failed, appending fallback", "error", err)
			s.done = true
			if s.onFailure != nil {
				s.onFailure()
			}
			return FallbackReply, nil
		}

		if len(resp.Choices) == 0 {
			continue
		}
		if tok := resp.Choices[0].Delta.Content; tok != "" {
			return tok, nil
		}
	}
}

func (s *openaiStream) Close() error {
	s.done = true
	return s.inner.Close()
}

// Verify interface at compile time.
var _ Generator = (*OpenAI)(nil)
