// Package transcription uploads captured audio for remote speech-to-text.
package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/nvcoach/nvcoach/audio"
	"github.com/nvcoach/nvcoach/config"
	"github.com/nvcoach/nvcoach/version"
)

const defaultBaseURL = "https://api.openai.com/v1"

// TranscriptionError reports a non-success response from the transcription
// service. Status and body are carried for diagnostics; retry policy belongs
// to the caller, never to this client.
type TranscriptionError struct {
	StatusCode int
	Body       string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: status %d: %s", e.StatusCode, e.Body)
}

// Config fixes the upload endpoint and model identifier.
type Config struct {
	Credential config.Credential
	BaseURL    string
	Model      string
}

// Client uploads audio blobs to the remote transcription endpoint.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
	model  string
}

// New constructs a transcription client from a resolved credential.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if !cfg.Credential.Present() {
		return nil, errors.New("transcription credential is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.Credential.Token()).
		SetHeader("User-Agent", "nvcoach/"+version.Version)

	if logger != nil {
		logger.Debug("transcription client ready",
			"model", model,
			"credential", cfg.Credential,
		)
	}

	return &Client{http: httpClient, logger: logger, model: model}, nil
}

// Transcribe uploads one audio blob as multipart form content and returns
// the recognized text. Whitespace-only service output is a successful empty
// transcription, not an error.
func (c *Client) Transcribe(ctx context.Context, blob audio.Blob) (string, error) {
	if len(blob.Data) == 0 {
		return "", errors.New("audio blob is empty")
	}

	fileName := blob.FileName
	if fileName == "" {
		fileName = "recording.wav"
	}

	var result struct {
		Text string `json:"text"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(blob.Data)).
		SetFormData(map[string]string{"model": c.model}).
		SetResult(&result).
		Post("/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if resp.IsError() {
		return "", &TranscriptionError{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Body())),
		}
	}

	if c.logger != nil {
		c.logger.Info("transcription completed",
			"bytes_uploaded", len(blob.Data),
			"text_length", len(result.Text),
		)
	}
	return result.Text, nil
}
