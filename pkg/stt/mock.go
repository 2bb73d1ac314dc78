package stt

import (
	"context"
	"fmt"
	"sync"
)

// MockService implements Service for testing.
type MockService struct {
	// StartErr, when set, makes Start fail.
	StartErr error

	stream *MockStream
}

// NewMockService creates a mock service with one backing stream.
func NewMockService() *MockService {
	return &MockService{stream: NewMockStream()}
}

// Start returns the backing mock stream.
func (m *MockService) Start(ctx context.Context) (Stream, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return m.stream, nil
}

// Stream exposes the backing stream for test orchestration.
func (m *MockService) Stream() *MockStream {
	return m.stream
}

// MockStream implements Stream for testing. Tests drive the inbound side
// with Emit and inspect forwarded audio with Frames.
type MockStream struct {
	events chan Event
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex
	frames [][]byte
	err    error
}

// NewMockStream creates an idle mock stream.
func NewMockStream() *MockStream {
	return &MockStream{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// SendAudio records the frame.
func (m *MockStream) SendAudio(ctx context.Context, frame []byte) error {
	select {
	case <-m.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frame)
	return nil
}

// Events delivers emitted events.
func (m *MockStream) Events() <-chan Event {
	return m.events
}

// Err reports the injected terminal error.
func (m *MockStream) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close terminates the stream. Idempotent.
func (m *MockStream) Close() error {
	m.once.Do(func() {
		close(m.done)
		close(m.events)
	})
	return nil
}

// Fail terminates the stream with an error, as a connection failure would.
func (m *MockStream) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	m.Close()
}

// Emit delivers one event to the consumer.
func (m *MockStream) Emit(ev Event) {
	m.events <- ev
}

// EmitResult delivers a Results event with the given transcript.
func (m *MockStream) EmitResult(transcript string, isFinal bool) {
	raw := fmt.Sprintf(
		`{"type":"Results","is_final":%t,"channel":{"alternatives":[{"transcript":%q}]}}`,
		isFinal, transcript,
	)
	m.Emit(parseEvent([]byte(raw)))
}

// Frames returns a copy of all forwarded audio frames.
func (m *MockStream) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

// Verify interfaces at compile time.
var (
	_ Service = (*MockService)(nil)
	_ Stream  = (*MockStream)(nil)
)
