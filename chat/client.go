// Package chat issues streamed and non-streamed completion requests against
// the remote model service.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/nvcoach/nvcoach/config"
	"github.com/nvcoach/nvcoach/transcript"
)

// streamTerminator is the sentinel payload that ends a streamed response.
const streamTerminator = "[DONE]"

// DeltaFunc receives the cumulative response text after each parsed stream
// event. It always gets the whole response-so-far, never a bare fragment.
type DeltaFunc func(cumulative string)

// Config fixes the request knobs used for every completion. These come from
// process configuration, not from user input.
type Config struct {
	Credential  config.Credential
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Client issues completion requests over one fixed model configuration.
type Client struct {
	api         openai.Client
	logger      *slog.Logger
	model       string
	temperature float64
	maxTokens   int64
}

// New constructs a chat client from a resolved credential and model knobs.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if !cfg.Credential.Present() {
		return nil, errors.New("chat credential is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.Credential.Token())}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	if logger != nil {
		logger.Debug("chat client ready",
			"model", model,
			"credential", cfg.Credential,
		)
	}

	return &Client{
		api:         openai.NewClient(opts...),
		logger:      logger,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Complete returns the assistant response for the given history. When onDelta
// is non-nil the request streams and onDelta fires with the cumulative text
// after every event carrying a fragment. On failure the returned
// *CompletionError carries the partial text accumulated so far; the partial
// must be discarded, never recorded as history.
func (c *Client) Complete(ctx context.Context, history []Message, onDelta DeltaFunc) (string, error) {
	if onDelta == nil {
		return c.complete(ctx, history)
	}
	return c.stream(ctx, history, onDelta)
}

// complete issues one non-streamed request and returns the full text atomically.
func (c *Client) complete(ctx context.Context, history []Message) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, c.params(history))
	if err != nil {
		return "", &CompletionError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionError{Err: errors.New("response contained no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// stream opens a server-streamed completion and drives onDelta per event.
// Malformed events are skipped and logged; the stream continues with the
// next event. A stream that closes without the terminator sentinel fails.
func (c *Client) stream(ctx context.Context, history []Message, onDelta DeltaFunc) (string, error) {
	var raw *http.Response
	err := c.api.Post(ctx, "chat/completions", c.params(history), &raw,
		option.WithJSONSet("stream", true))
	if err != nil {
		return "", &CompletionError{Err: err}
	}

	decoder := ssestream.NewDecoder(raw)
	defer decoder.Close()

	var partial transcript.Assembler
	terminated := false

	for decoder.Next() {
		data := bytes.TrimSpace(decoder.Event().Data)
		if string(data) == streamTerminator {
			terminated = true
			break
		}

		var chunk openai.ChatCompletionChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			c.logDebug("skipping malformed stream event", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			c.logDebug("skipping stream event without choices", "chunk_id", chunk.ID)
			continue
		}

		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			onDelta(partial.Append(delta))
		}
	}

	if err := decoder.Err(); err != nil {
		return "", &CompletionError{Partial: partial.String(), Err: fmt.Errorf("read stream: %w", err)}
	}
	if !terminated {
		return "", &CompletionError{Partial: partial.String(), Err: errors.New("stream closed before terminator")}
	}
	return partial.String(), nil
}

// params converts a history into one request with the fixed model knobs.
func (c *Client) params(history []Message) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	}
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, args...)
}
