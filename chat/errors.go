package chat

import "fmt"

// CompletionError reports a failed completion request or a stream that ended
// without its terminator. Partial holds whatever text had accumulated when
// the failure occurred; callers must discard it rather than record it as an
// assistant turn.
type CompletionError struct {
	Partial string
	Err     error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("chat completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
