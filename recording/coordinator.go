// Package recording sequences audio capture and transcription into one
// caller-facing record/transcribe operation.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nvcoach/nvcoach/audio"
	"github.com/nvcoach/nvcoach/fsm"
	"github.com/nvcoach/nvcoach/transcript"
)

var (
	// ErrAlreadyRecording indicates Start was called with a session live.
	// The live session is left untouched.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording indicates Stop was called with no session live.
	ErrNotRecording = errors.New("no recording in progress")
)

// Transcriber converts one finished capture into text.
type Transcriber interface {
	Transcribe(ctx context.Context, blob audio.Blob) (string, error)
}

// Coordinator drives one record/transcribe cycle at a time over a capture
// backend. Failures reset it to idle so a fresh Start may be attempted.
type Coordinator struct {
	backend    audio.Backend
	transcribe Transcriber
	logger     *slog.Logger

	mu      sync.Mutex
	state   fsm.State
	session *audio.Session
}

// NewCoordinator composes a capture backend with a transcriber.
func NewCoordinator(backend audio.Backend, transcriber Transcriber, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		backend:    backend,
		transcribe: transcriber,
		logger:     logger,
		state:      fsm.StateIdle,
	}
}

// State returns the current lifecycle state snapshot.
func (c *Coordinator) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires a backend session and moves to recording. On acquisition
// failure the coordinator stays idle and the backend error is surfaced.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == fsm.StateRecording {
		return ErrAlreadyRecording
	}
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		return err
	}

	session, err := c.backend.Start(ctx)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	c.state = next
	c.session = session
	if c.logger != nil {
		c.logger.Info("recording started", "session_id", session.ID())
	}
	return nil
}

// Stop tears down capture, uploads the audio, and returns the transcribed
// text. On any failure after teardown begins, the capture resources are
// already released and the coordinator resets to idle with no text.
func (c *Coordinator) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != fsm.StateRecording || c.session == nil {
		c.mu.Unlock()
		return "", ErrNotRecording
	}
	next, err := fsm.Transition(c.state, fsm.EventStop)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.state = next
	session := c.session
	c.session = nil
	c.mu.Unlock()

	blob, err := c.backend.Stop(ctx, session)
	if err != nil {
		c.failAndReset()
		return "", fmt.Errorf("stop capture: %w", err)
	}
	c.advance(fsm.EventCaptured)

	text, err := c.transcribe.Transcribe(ctx, blob)
	if err != nil {
		c.failAndReset()
		return "", fmt.Errorf("transcribe capture: %w", err)
	}
	c.advance(fsm.EventTranscribed)

	text = transcript.Normalize(text)
	if c.logger != nil {
		c.logger.Info("recording transcribed",
			"session_id", session.ID(),
			"audio_bytes", len(blob.Data),
			"text_length", len(text),
		)
	}
	return text, nil
}

// advance applies one lifecycle event, tolerating nothing: transition errors
// here indicate a coordinator bug, so they collapse to the error state.
func (c *Coordinator) advance(event fsm.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.state = fsm.StateError
		return
	}
	c.state = next
}

// failAndReset records the failure and returns to idle so callers can retry.
func (c *Coordinator) failAndReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next, err := fsm.Transition(c.state, fsm.EventFail); err == nil {
		c.state = next
	}
	if next, err := fsm.Transition(c.state, fsm.EventReset); err == nil {
		c.state = next
	}
}
