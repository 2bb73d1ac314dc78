package stt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en-US"

	// keepAliveMessage prevents the engine from closing an idle socket
	// while the user is silent.
	keepAliveMessage = `{"type":"KeepAlive"}`

	closeGraceTimeout = time.Second
)

// Config holds Deepgram live transcription configuration.
type Config struct {
	APIKey   string
	URL      string // listen endpoint, defaults to the public API
	Model    string
	Language string

	// Audio format. The client sends raw linear PCM at this rate.
	SampleRate int
	Channels   int

	// KeepAlive is the interval between keep-alive messages.
	KeepAlive time.Duration

	// AudioBuffer is the capacity of the inbound audio queue.
	// Producers block when it fills; frames are never dropped.
	AudioBuffer int

	Logger *slog.Logger
	Dialer *websocket.Dialer
}

func (c *Config) withDefaults() {
	if c.URL == "" {
		c.URL = defaultListenURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 5 * time.Second
	}
	if c.AudioBuffer == 0 {
		c.AudioBuffer = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
}

// Deepgram starts live transcription streams against the Deepgram API.
type Deepgram struct {
	cfg    Config
	logger *slog.Logger
}

// NewDeepgram creates a Deepgram transcription service.
func NewDeepgram(cfg Config) (*Deepgram, error) {
	cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Deepgram{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "stt.deepgram"),
	}, nil
}

// listenURL builds the websocket URL with the fixed streaming options:
// interim results, punctuation and smart formatting enabled.
func (d *Deepgram) listenURL() string {
	q := url.Values{}
	q.Set("model", d.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(d.cfg.SampleRate))
	q.Set("channels", strconv.Itoa(d.cfg.Channels))
	q.Set("language", d.cfg.Language)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("vad_events", "true")
	return d.cfg.URL + "?" + q.Encode()
}

// Start dials the engine and begins both pumps. The returned stream is
// valid until Close is called or the connection fails.
func (d *Deepgram) Start(ctx context.Context) (Stream, error) {
	header := http.Header{
		"Authorization": {"Token " + d.cfg.APIKey},
	}

	conn, resp, err := d.cfg.Dialer.DialContext(ctx, d.listenURL(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stt: dial deepgram: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("stt: dial deepgram: %w", err)
	}

	s := &liveStream{
		conn:      conn,
		audio:     make(chan []byte, d.cfg.AudioBuffer),
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
		keepAlive: d.cfg.KeepAlive,
		logger:    d.logger,
	}

	go s.writePump()
	go s.readPump()

	d.logger.Debug("transcription stream started",
		"model", d.cfg.Model,
		"sample_rate", d.cfg.SampleRate,
	)
	return s, nil
}

// liveStream is one live connection to the engine.
//
// The write pump is the sole writer of data frames, interleaving audio and
// keep-alives without corrupting message framing. Control frames (close)
// may be written concurrently with data frames.
type liveStream struct {
	conn      *websocket.Conn
	audio     chan []byte
	events    chan Event
	done      chan struct{}
	keepAlive time.Duration
	logger    *slog.Logger

	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// SendAudio enqueues one audio frame for forwarding.
func (s *liveStream) SendAudio(ctx context.Context, frame []byte) error {
	select {
	case s.audio <- frame:
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events delivers parsed engine events in arrival order.
func (s *liveStream) Events() <-chan Event {
	return s.events
}

// Err reports the terminal stream error recorded before Events closed.
// Returns nil after a clean Close.
func (s *liveStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close tears the stream down. Safe to call more than once.
func (s *liveStream) Close() error {
	s.shutdown(nil)
	return nil
}

// shutdown records the terminal error (first one wins), signals both pumps
// and closes the socket, which unblocks the blocked read.
func (s *liveStream) shutdown(err error) {
	s.closeOnce.Do(func() {
		if err != nil {
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
		}
		close(s.done)

		// Best-effort close handshake before dropping the socket.
		deadline := time.Now().Add(closeGraceTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
}

// writePump forwards audio frames and periodic keep-alives.
// It is the only goroutine writing data frames to the connection.
func (s *liveStream) writePump() {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case frame := <-s.audio:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.logger.Warn("audio write failed", "error", err)
				s.shutdown(fmt.Errorf("stt: write audio: %w", err))
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(keepAliveMessage)); err != nil {
				s.logger.Warn("keep-alive write failed", "error", err)
				s.shutdown(fmt.Errorf("stt: write keep-alive: %w", err))
				return
			}
		}
	}
}

// readPump parses engine messages into events until the connection fails
// or the stream is closed. Closing the events channel is the terminal
// signal to the consumer.
func (s *liveStream) readPump() {
	defer close(s.events)

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// expected: stream was closed locally
			default:
				s.logger.Warn("transcription read failed", "error", err)
				s.shutdown(fmt.Errorf("stt: read: %w", err))
			}
			return
		}

		ev := parseEvent(msg)
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}
