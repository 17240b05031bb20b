package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const chunkSizeBytes = 640 // 20ms @ 16kHz mono s16

// PulseBackend captures live microphone audio from the default PulseAudio
// source, buffering PCM chunks in arrival order until Stop.
type PulseBackend struct {
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
	capture *pulseCapture
}

// NewPulseBackend constructs the in-process device capture backend.
func NewPulseBackend(logger *slog.Logger) *PulseBackend {
	return &PulseBackend{logger: logger}
}

// Start connects to the Pulse server, opens a record stream on the default
// source, and begins buffering chunks. Acquisition failure maps to
// ErrPermissionDenied and leaves no resource behind.
func (b *PulseBackend) Start(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		return nil, ErrSessionActive
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("nvcoach"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pulse server: %v", ErrPermissionDenied, err)
	}

	source, err := client.DefaultSource()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: resolve default source: %v", ErrPermissionDenied, err)
	}

	capture := &pulseCapture{client: client, done: make(chan struct{})}
	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("nvcoach capture"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: create record stream: %v", ErrPermissionDenied, err)
	}
	capture.stream = stream
	stream.Start()

	session := NewSession()
	b.session = session
	b.capture = capture

	// Cancellation of the owning call releases the device and discards the
	// session rather than leaving an orphaned stream behind. Stop closes
	// done so the watcher never outlives its session.
	go func() {
		select {
		case <-ctx.Done():
			b.abort(session)
		case <-capture.done:
		}
	}()

	if b.logger != nil {
		b.logger.Info("device capture started", "session_id", session.ID())
	}
	return session, nil
}

// Stop tears down the record stream, releases the device, and returns the
// buffered chunks concatenated into one WAV blob.
func (b *PulseBackend) Stop(_ context.Context, session *Session) (Blob, error) {
	b.mu.Lock()
	if session == nil || b.session == nil || b.session != session {
		b.mu.Unlock()
		return Blob{}, ErrNoActiveSession
	}
	capture := b.capture
	b.session = nil
	b.capture = nil
	b.mu.Unlock()
	defer close(capture.done)

	pcm := capture.stopAndDrain()
	if b.logger != nil {
		b.logger.Info("device capture stopped",
			"session_id", session.ID(),
			"bytes_captured", len(pcm),
		)
	}

	return Blob{
		Data:        EncodeWAV(pcm, SampleRate, Channels),
		ContentType: "audio/wav",
		FileName:    "recording.wav",
	}, nil
}

// abort releases the capture when the owning context is cancelled before Stop.
func (b *PulseBackend) abort(session *Session) {
	b.mu.Lock()
	if b.session != session {
		b.mu.Unlock()
		return
	}
	capture := b.capture
	b.session = nil
	b.capture = nil
	b.mu.Unlock()

	capture.stopAndDrain()
	if b.logger != nil {
		b.logger.Warn("device capture aborted", "session_id", session.ID())
	}
}

// pulseCapture buffers PCM chunks emitted by one Pulse record stream.
type pulseCapture struct {
	client *pulse.Client
	stream *pulse.RecordStream
	done   chan struct{}

	mu      sync.Mutex
	chunks  [][]byte
	stopped bool
}

// onPCM receives raw frames from Pulse and buffers copies in arrival order.
func (c *pulseCapture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return 0, io.EOF
	}

	chunk := make([]byte, len(buffer))
	copy(chunk, buffer)
	c.chunks = append(c.chunks, chunk)
	return len(buffer), nil
}

// stopAndDrain halts the stream, releases the device, and concatenates the
// buffered chunks. Safe to call once per capture; later onPCM calls see EOF.
func (c *pulseCapture) stopAndDrain() []byte {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, chunk := range c.chunks {
		total += len(chunk)
	}
	pcm := make([]byte, 0, total)
	for _, chunk := range c.chunks {
		pcm = append(pcm, chunk...)
	}
	c.chunks = nil
	return pcm
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
