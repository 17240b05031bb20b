// Package audio acquires recording resources and produces raw audio blobs.
package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrPermissionDenied indicates the capture device or recorder could not
	// be acquired (absent, busy, or permission refused).
	ErrPermissionDenied = errors.New("audio capture device unavailable")
	// ErrNoActiveSession indicates Stop was called without a live session
	// from a prior successful Start. A session already consumed by Stop is
	// no longer live; stopping it twice is rejected, never ignored.
	ErrNoActiveSession = errors.New("no active recording session")
	// ErrSessionActive indicates Start was called while a session is live.
	ErrSessionActive = errors.New("a recording session is already active")
)

// CaptureReadError reports a finished capture file that could not be read
// back. The file is left on disk at Path so the caller can retry the read or
// remove the orphan; the session that produced it is already invalidated.
type CaptureReadError struct {
	Path string
	Err  error
}

func (e *CaptureReadError) Error() string {
	return fmt.Sprintf("read capture file %q: %v", e.Path, e.Err)
}

func (e *CaptureReadError) Unwrap() error {
	return e.Err
}

// Blob is one finished capture: raw audio bytes plus upload metadata.
type Blob struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Session is an opaque handle for one active capture. It is created by
// Start, exclusively owned by its backend, and consumed exactly once by Stop.
type Session struct {
	id uuid.UUID
}

// NewSession mints a fresh session handle. Backends call this from Start;
// it is exported so alternate Backend implementations can do the same.
func NewSession() *Session {
	return &Session{id: uuid.New()}
}

// ID returns the session identifier for logs and diagnostics.
func (s *Session) ID() string {
	return s.id.String()
}

// Backend is the capture capability shared by the device and file variants.
// A backend owns at most one live session at a time; device and file
// resources are released on every exit path, including errors.
type Backend interface {
	// Start acquires the capture resource and begins recording.
	Start(ctx context.Context) (*Session, error)
	// Stop tears down the capture and returns the recorded audio. The
	// session is invalidated whether or not Stop succeeds at producing a blob.
	Stop(ctx context.Context, session *Session) (Blob, error)
}
