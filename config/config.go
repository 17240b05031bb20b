// Package config resolves, validates, and defaults nvcoach runtime configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Runtime selects which execution environment's credential key applies.
type Runtime string

const (
	// RuntimeHost is a server or desktop process holding its own credential.
	RuntimeHost Runtime = "host"
	// RuntimeWeb is a browser-hosted build whose credential is injected into
	// the public environment at bundle time.
	RuntimeWeb Runtime = "web"
)

// Environment keys read by Load.
const (
	EnvRuntime            = "NVCOACH_RUNTIME"
	EnvAPIKeyHost         = "OPENAI_API_KEY"
	EnvAPIKeyWeb          = "NVCOACH_PUBLIC_OPENAI_API_KEY"
	EnvBaseURL            = "NVCOACH_API_BASE_URL"
	EnvChatModel          = "NVCOACH_CHAT_MODEL"
	EnvChatTemperature    = "NVCOACH_CHAT_TEMPERATURE"
	EnvChatMaxTokens      = "NVCOACH_CHAT_MAX_TOKENS"
	EnvTranscriptionModel = "NVCOACH_TRANSCRIPTION_MODEL"
	EnvCaptureBackend     = "NVCOACH_CAPTURE_BACKEND"
	EnvRecorderCmd        = "NVCOACH_RECORDER_CMD"
)

// Capture backend selectors accepted by Validate.
const (
	CapturePulse = "pulse"
	CaptureFile  = "file"
)

// Credential is a bearer token for the remote services. The token value is
// never logged or printed; diagnostics see only presence and length.
type Credential struct {
	token string
}

// NewCredential wraps a raw token, trimming surrounding whitespace.
func NewCredential(token string) Credential {
	return Credential{token: strings.TrimSpace(token)}
}

// Present reports whether a non-empty token was supplied.
func (c Credential) Present() bool {
	return c.token != ""
}

// Length returns the token length for diagnostics.
func (c Credential) Length() int {
	return len(c.token)
}

// Token returns the raw bearer token for request authorization.
func (c Credential) Token() string {
	return c.token
}

// String masks the token in formatted output.
func (c Credential) String() string {
	if !c.Present() {
		return "credential(absent)"
	}
	return fmt.Sprintf("credential(len=%d)", len(c.token))
}

// LogValue keeps slog output to presence and length only.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("present", c.Present()),
		slog.Int("length", c.Length()),
	)
}

// ChatConfig fixes the completion request knobs. These are configuration,
// not user input.
type ChatConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// TranscriptionConfig fixes the transcription request parameters.
type TranscriptionConfig struct {
	Model string
}

// CaptureConfig selects the audio capture backend and, for the file backend,
// the recorder command invoked to write the capture file.
type CaptureConfig struct {
	Backend      string
	RecorderArgv []string
}

// Config is the fully materialized runtime configuration used by nvcoach.
type Config struct {
	Runtime       Runtime
	Credential    Credential
	BaseURL       string
	Chat          ChatConfig
	Transcription TranscriptionConfig
	Capture       CaptureConfig
}

// Default returns the baseline configuration before environment overrides.
func Default() Config {
	return Config{
		Runtime: RuntimeHost,
		Chat: ChatConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		Transcription: TranscriptionConfig{
			Model: "whisper-1",
		},
		Capture: CaptureConfig{
			Backend:      CapturePulse,
			RecorderArgv: []string{"parecord", "--file-format=wav", "--rate=16000", "--channels=1"},
		},
	}
}

// Load reads an optional .env file, then materializes configuration from the
// process environment over defaults.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error
	return FromEnv(os.Getenv)
}

// FromEnv materializes configuration from the given environment lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if raw := strings.TrimSpace(getenv(EnvRuntime)); raw != "" {
		cfg.Runtime = Runtime(strings.ToLower(raw))
	}

	switch cfg.Runtime {
	case RuntimeHost:
		cfg.Credential = NewCredential(getenv(EnvAPIKeyHost))
	case RuntimeWeb:
		cfg.Credential = NewCredential(getenv(EnvAPIKeyWeb))
	}

	cfg.BaseURL = strings.TrimSpace(getenv(EnvBaseURL))

	if model := strings.TrimSpace(getenv(EnvChatModel)); model != "" {
		cfg.Chat.Model = model
	}
	if raw := strings.TrimSpace(getenv(EnvChatTemperature)); raw != "" {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s %q: %w", EnvChatTemperature, raw, err)
		}
		cfg.Chat.Temperature = temperature
	}
	if raw := strings.TrimSpace(getenv(EnvChatMaxTokens)); raw != "" {
		maxTokens, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s %q: %w", EnvChatMaxTokens, raw, err)
		}
		cfg.Chat.MaxTokens = maxTokens
	}
	if model := strings.TrimSpace(getenv(EnvTranscriptionModel)); model != "" {
		cfg.Transcription.Model = model
	}
	if backend := strings.TrimSpace(getenv(EnvCaptureBackend)); backend != "" {
		cfg.Capture.Backend = strings.ToLower(backend)
	}
	if raw := strings.TrimSpace(getenv(EnvRecorderCmd)); raw != "" {
		cfg.Capture.RecorderArgv = strings.Fields(raw)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces configuration invariants.
func Validate(cfg Config) error {
	if cfg.Runtime != RuntimeHost && cfg.Runtime != RuntimeWeb {
		return fmt.Errorf("runtime must be one of: %s, %s", RuntimeHost, RuntimeWeb)
	}
	if strings.TrimSpace(cfg.Chat.Model) == "" {
		return fmt.Errorf("chat.model must not be empty")
	}
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be within [0, 2]")
	}
	if cfg.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be > 0")
	}
	if strings.TrimSpace(cfg.Transcription.Model) == "" {
		return fmt.Errorf("transcription.model must not be empty")
	}
	if cfg.Capture.Backend != CapturePulse && cfg.Capture.Backend != CaptureFile {
		return fmt.Errorf("capture.backend must be one of: %s, %s", CapturePulse, CaptureFile)
	}
	if cfg.Capture.Backend == CaptureFile && len(cfg.Capture.RecorderArgv) == 0 {
		return fmt.Errorf("capture.recorder_cmd must not be empty when capture.backend=%s", CaptureFile)
	}
	return nil
}
