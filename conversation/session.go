// Package conversation owns the ordered dialogue history for one coaching session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nvcoach/nvcoach/chat"
)

// DefaultSystemPrompt seeds new sessions with the coaching persona.
const DefaultSystemPrompt = `You are an NVC (Nonviolent Communication) coach. Your role is to:
1. Help users practice NVC principles in various scenarios
2. Provide constructive feedback on their responses
3. Guide them towards more empathetic and effective communication
4. Focus on the four components of NVC: observations, feelings, needs, and requests

If the user says "yes" or indicates they want to start, provide a realistic scenario that they might encounter in their daily life where NVC would be helpful.

Always maintain a supportive and non-judgmental tone.`

var (
	// ErrEmptyMessage indicates Send was called with no usable text.
	ErrEmptyMessage = errors.New("message text must not be empty")
	// ErrSendInFlight indicates another Send is still running on this session.
	ErrSendInFlight = errors.New("another send is already in flight on this session")
)

// Completer issues one completion over a full history snapshot.
type Completer interface {
	Complete(ctx context.Context, history []chat.Message, onDelta chat.DeltaFunc) (string, error)
}

// Session owns one append-only conversation history. The first element is
// always the system prompt. History only ever grows: Send appends exactly
// one user message and, on success, one assistant message; nothing is ever
// edited or removed for the lifetime of the session.
type Session struct {
	client Completer

	mu      sync.Mutex
	sending bool
	history []chat.Message
}

// NewSession creates a session seeded with the given system prompt, falling
// back to DefaultSystemPrompt when blank.
func NewSession(client Completer, systemPrompt string) *Session {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Session{
		client:  client,
		history: []chat.Message{{Role: chat.RoleSystem, Content: systemPrompt}},
	}
}

// Send appends a user turn, requests a completion over the full history, and
// appends the assistant reply on success. On failure the user turn stays
// recorded and the incomplete reply is discarded; the caller decides whether
// to retry or surface the error. At most one Send may be in flight per
// session; a concurrent call fails with ErrSendInFlight.
func (s *Session) Send(ctx context.Context, userText string, onDelta chat.DeltaFunc) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return "", ErrSendInFlight
	}
	s.sending = true
	s.history = append(s.history, chat.Message{Role: chat.RoleUser, Content: userText})
	snapshot := make([]chat.Message, len(s.history))
	copy(snapshot, s.history)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	reply, err := s.client.Complete(ctx, snapshot, onDelta)
	if err != nil {
		return "", fmt.Errorf("complete turn: %w", err)
	}

	s.mu.Lock()
	s.history = append(s.history, chat.Message{Role: chat.RoleAssistant, Content: reply})
	s.mu.Unlock()

	return reply, nil
}

// History returns a defensive copy of the conversation so far.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages recorded so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
