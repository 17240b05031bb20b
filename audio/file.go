package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// FileBackend records through an external recorder process that writes a
// temporary WAV file. Stop finalizes the recorder, reads the file back, and
// deletes it only after a successful read, so a failed read leaves the file
// in place for a caller-directed retry.
type FileBackend struct {
	argv   []string
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
	rec     *fileRecording
}

type fileRecording struct {
	cmd  *exec.Cmd
	path string
	done chan struct{}
}

// NewFileBackend constructs the device-file capture backend. The recorder
// command receives the output path as its final argument.
func NewFileBackend(argv []string, logger *slog.Logger) *FileBackend {
	if len(argv) == 0 {
		argv = []string{"parecord", "--file-format=wav", "--rate=16000", "--channels=1"}
	}
	return &FileBackend{argv: argv, logger: logger}
}

// Start creates the capture file and launches the recorder process. A
// recorder that cannot be launched maps to ErrPermissionDenied.
func (b *FileBackend) Start(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		return nil, ErrSessionActive
	}

	tmp, err := os.CreateTemp("", "nvcoach-capture-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close capture file: %w", err)
	}

	args := append(append([]string(nil), b.argv[1:]...), path)
	cmd := exec.Command(b.argv[0], args...)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: launch recorder %q: %v", ErrPermissionDenied, b.argv[0], err)
	}

	session := NewSession()
	done := make(chan struct{})
	b.session = session
	b.rec = &fileRecording{cmd: cmd, path: path, done: done}

	// Cancellation of the owning call kills the recorder and removes the
	// temp file rather than leaving either behind. Stop closes done so the
	// watcher never outlives its session.
	go func() {
		select {
		case <-ctx.Done():
			b.abort(session)
		case <-done:
		}
	}()

	if b.logger != nil {
		b.logger.Info("file capture started", "session_id", session.ID())
	}
	return session, nil
}

// Stop finalizes the recorder process and reads the capture file back. The
// file is deleted as the last step, only after a successful read.
func (b *FileBackend) Stop(_ context.Context, session *Session) (Blob, error) {
	b.mu.Lock()
	if session == nil || b.session == nil || b.session != session {
		b.mu.Unlock()
		return Blob{}, ErrNoActiveSession
	}
	rec := b.rec
	b.session = nil
	b.rec = nil
	b.mu.Unlock()
	defer close(rec.done)

	if err := finalizeRecorder(rec.cmd); err != nil {
		_ = os.Remove(rec.path)
		return Blob{}, fmt.Errorf("finalize recorder: %w", err)
	}

	data, err := os.ReadFile(rec.path)
	if err != nil {
		// The capture file survives a read failure; only its session handle
		// is invalidated. The path travels in the error so the caller can
		// retry the read or clean up the orphan.
		return Blob{}, &CaptureReadError{Path: rec.path, Err: err}
	}
	_ = os.Remove(rec.path)

	if b.logger != nil {
		b.logger.Info("file capture stopped",
			"session_id", session.ID(),
			"bytes_captured", len(data),
		)
	}

	return Blob{
		Data:        data,
		ContentType: "audio/wav",
		FileName:    filepath.Base(rec.path),
	}, nil
}

// abort kills the recorder and removes the capture file when the owning
// context is cancelled before Stop.
func (b *FileBackend) abort(session *Session) {
	b.mu.Lock()
	if b.session != session {
		b.mu.Unlock()
		return
	}
	rec := b.rec
	b.session = nil
	b.rec = nil
	b.mu.Unlock()

	_ = rec.cmd.Process.Kill()
	_ = rec.cmd.Wait()
	_ = os.Remove(rec.path)
	if b.logger != nil {
		b.logger.Warn("file capture aborted", "session_id", session.ID())
	}
}

// finalizeRecorder interrupts the recorder so it flushes and exits, falling
// back to a kill when the signal cannot be delivered.
func finalizeRecorder(cmd *exec.Cmd) error {
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("signal recorder: %w", err)
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	// Recorders conventionally exit non-zero when interrupted; that is the
	// normal finalize path, not a failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
