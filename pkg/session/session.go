// Package session orchestrates one client connection through the voice
// pipeline: audio frames up to live transcription, finalized transcripts
// through generation, sentence accumulation, and synthesis, and the
// resulting text and audio frames back down to the client in order.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voicepipe/voicepipe/internal/metrics"
	"github.com/voicepipe/voicepipe/pkg/llm"
	"github.com/voicepipe/voicepipe/pkg/protocol"
	"github.com/voicepipe/voicepipe/pkg/sentence"
	"github.com/voicepipe/voicepipe/pkg/stt"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

// defaultOutboundBuffer is the outbound frame queue depth per session.
const defaultOutboundBuffer = 64

// State is the session lifecycle state.
type State int32

const (
	// StateConnected means the client socket is open but transcription
	// has not started yet.
	StateConnected State = iota

	// StateListening means audio is being transcribed and no response
	// cycle is active.
	StateListening

	// StateResponding means a response cycle is streaming text and audio
	// to the client.
	StateResponding

	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is the client-facing websocket surface the session needs.
// Both gorilla and fiber websocket connections satisfy it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Config holds the shared dependencies for building sessions.
type Config struct {
	STT       stt.Service
	Generator llm.Generator
	Synth     tts.Provider

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// MaxSentenceLength is the forced-flush threshold for sentence
	// accumulation. Zero selects the package default.
	MaxSentenceLength int

	// OutboundBuffer is the outbound frame queue depth. Zero selects
	// the package default.
	OutboundBuffer int
}

// Pipeline builds sessions from shared dependencies.
type Pipeline struct {
	cfg    Config
	active atomic.Int64
}

// Active returns the number of open sessions.
func (p *Pipeline) Active() int64 {
	return p.active.Load()
}

// NewPipeline validates the dependencies and returns a session factory.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.STT == nil {
		return nil, errors.New("session: STT service required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("session: generator required")
	}
	if cfg.Synth == nil {
		return nil, errors.New("session: synthesis provider required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OutboundBuffer <= 0 {
		cfg.OutboundBuffer = defaultOutboundBuffer
	}
	return &Pipeline{cfg: cfg}, nil
}

// frame is one outbound websocket message.
type frame struct {
	kind int
	data []byte
}

// Session is one client connection moving through the pipeline.
type Session struct {
	id     string
	conn   Conn
	stream stt.Stream

	gen     llm.Generator
	synth   tts.Provider
	metrics *metrics.Metrics
	logger  *slog.Logger
	active  *atomic.Int64

	maxSentenceLen int
	outbound       chan frame

	ctx    context.Context
	cancel context.CancelFunc

	state     atomic.Int32
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open starts a session for conn: it opens the transcription stream and
// launches the write and transcript pumps. The caller must call Run to
// drive the client read loop, or Close to tear down.
func (p *Pipeline) Open(ctx context.Context, conn Conn) (*Session, error) {
	sctx, cancel := context.WithCancel(ctx)

	stream, err := p.cfg.STT.Start(sctx)
	if err != nil {
		cancel()
		conn.Close()
		return nil, err
	}

	s := &Session{
		id:             uuid.NewString(),
		conn:           conn,
		stream:         stream,
		gen:            p.cfg.Generator,
		synth:          p.cfg.Synth,
		metrics:        p.cfg.Metrics,
		active:         &p.active,
		maxSentenceLen: p.cfg.MaxSentenceLength,
		outbound:       make(chan frame, p.cfg.OutboundBuffer),
		ctx:            sctx,
		cancel:         cancel,
	}
	s.logger = p.cfg.Logger.With("session", s.id)

	s.metrics.SessionsStarted.Inc()
	s.metrics.ActiveSessions.Inc()
	s.active.Add(1)
	s.state.Store(int32(StateListening))
	s.logger.Info("session started")

	s.wg.Add(3)
	go s.writePump()
	go s.transcriptLoop()
	go func() {
		// Any path that cancels the context takes the whole session
		// down, including the blocked client read.
		defer s.wg.Done()
		<-s.ctx.Done()
		s.Close()
	}()

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run drives the client read loop and blocks until the connection or the
// session ends. It always leaves the session closed.
func (s *Session) Run() {
	s.readLoop()
	s.Close()
	s.wg.Wait()
}

// Close tears the session down. Idempotent and safe from any goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.cancel()
		s.stream.Close()
		s.conn.Close()
		s.metrics.ActiveSessions.Dec()
		s.metrics.SessionsClosed.Inc()
		s.active.Add(-1)
		s.logger.Info("session closed")
	})
	return nil
}

// send queues one outbound frame, giving up when the session is done.
func (s *Session) send(kind int, data []byte) bool {
	select {
	case s.outbound <- frame{kind: kind, data: data}:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// writePump is the sole writer on the client connection, so text and
// binary frames reach the client in exactly the order they were queued.
func (s *Session) writePump() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case f := <-s.outbound:
			if err := s.conn.WriteMessage(f.kind, f.data); err != nil {
				s.logger.Warn("client write failed", "error", err)
				s.cancel()
				return
			}
		}
	}
}

// readLoop ingests client frames: binary frames are audio for
// transcription, text frames are typed utterances that trigger a
// response cycle directly.
func (s *Session) readLoop() {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Debug("client read ended", "error", err)
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			if err := s.stream.SendAudio(s.ctx, data); err != nil {
				if !errors.Is(err, stt.ErrStreamClosed) && !errors.Is(err, context.Canceled) {
					s.logger.Warn("audio forward failed", "error", err)
				}
				return
			}
			s.metrics.AudioFramesForwarded.Inc()

		case websocket.TextMessage:
			utterance := strings.TrimSpace(string(data))
			if utterance != "" {
				s.startResponse(utterance)
			}
		}
	}
}

// transcriptLoop relays engine events to the client verbatim and starts
// a response cycle for each finalized, non-empty transcript.
func (s *Session) transcriptLoop() {
	defer s.wg.Done()

	for ev := range s.stream.Events() {
		s.metrics.TranscriptEvents.Inc()

		if len(ev.Raw) > 0 {
			s.send(websocket.TextMessage, ev.Raw)
		}

		if ev.Type != stt.EventResults || !ev.IsFinal {
			continue
		}
		utterance := strings.TrimSpace(ev.Transcript)
		if utterance == "" {
			continue
		}
		s.startResponse(utterance)
	}

	if err := s.stream.Err(); err != nil {
		s.logger.Warn("transcription stream failed", "error", err)
	}
	// No transcription, no session.
	s.cancel()
}

// startResponse begins a response cycle for utterance unless one is
// already running, in which case the transcript is dropped.
func (s *Session) startResponse(utterance string) {
	if !s.state.CompareAndSwap(int32(StateListening), int32(StateResponding)) {
		s.metrics.DroppedFinals.Inc()
		s.logger.Debug("dropped final transcript, response in progress",
			"utterance", utterance)
		return
	}

	s.metrics.ResponseCycles.Inc()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.respond(utterance)
		s.state.CompareAndSwap(int32(StateResponding), int32(StateListening))
	}()
}

// respond streams the generated reply, releasing each complete sentence
// as a bot_text frame followed by its audio, and finishes with tts_end.
func (s *Session) respond(utterance string) {
	s.logger.Info("response cycle started", "utterance", utterance)

	tokens := s.gen.StreamReply(s.ctx, utterance)
	defer tokens.Close()

	acc := sentence.New(s.maxSentenceLen)
	for {
		tok, err := tokens.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("token stream ended", "error", err)
			}
			break
		}
		if sent, ok := acc.Add(tok); ok {
			s.speak(sent)
		}
		if s.ctx.Err() != nil {
			return
		}
	}

	if sent, ok := acc.Flush(); ok {
		s.speak(sent)
	}

	s.send(websocket.TextMessage, protocol.TTSEnd())
	s.logger.Info("response cycle finished")
}

// speak sends one sentence as text, synthesizes it, and sends the audio.
// A synthesis failure skips the audio frame but never aborts the cycle.
func (s *Session) speak(text string) {
	msg, err := protocol.BotText(text)
	if err != nil {
		s.logger.Error("encode sentence failed", "error", err)
		return
	}
	if !s.send(websocket.TextMessage, msg) {
		return
	}

	start := time.Now()
	result, err := s.synth.Synthesize(s.ctx, text)
	s.metrics.SynthesisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.SynthesisFailures.Inc()
		s.logger.Error("synthesis failed, skipping audio",
			"chars", len(text), "error", err)
		return
	}

	s.metrics.SentencesSynthesized.Inc()
	s.send(websocket.BinaryMessage, result.Audio)
}
