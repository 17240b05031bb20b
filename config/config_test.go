package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(env(map[string]string{EnvAPIKeyHost: "sk-test"}))
	require.NoError(t, err)
	require.Equal(t, RuntimeHost, cfg.Runtime)
	require.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	require.InDelta(t, 0.7, cfg.Chat.Temperature, 1e-9)
	require.Equal(t, int64(500), cfg.Chat.MaxTokens)
	require.Equal(t, "whisper-1", cfg.Transcription.Model)
	require.Equal(t, CapturePulse, cfg.Capture.Backend)
	require.True(t, cfg.Credential.Present())
}

func TestFromEnvSelectsCredentialKeyPerRuntime(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		EnvAPIKeyHost: "sk-host",
		EnvAPIKeyWeb:  "sk-web",
	}

	host, err := FromEnv(env(values))
	require.NoError(t, err)
	require.Equal(t, "sk-host", host.Credential.Token())

	values[EnvRuntime] = "web"
	web, err := FromEnv(env(values))
	require.NoError(t, err)
	require.Equal(t, RuntimeWeb, web.Runtime)
	require.Equal(t, "sk-web", web.Credential.Token())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(env(map[string]string{
		EnvAPIKeyHost:         "sk-test",
		EnvBaseURL:            "http://127.0.0.1:9999/v1",
		EnvChatModel:          "gpt-4o",
		EnvChatTemperature:    "0.2",
		EnvChatMaxTokens:      "1024",
		EnvTranscriptionModel: "whisper-large",
		EnvCaptureBackend:     "file",
		EnvRecorderCmd:        "arecord -f S16_LE -r 16000",
	}))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9999/v1", cfg.BaseURL)
	require.Equal(t, "gpt-4o", cfg.Chat.Model)
	require.InDelta(t, 0.2, cfg.Chat.Temperature, 1e-9)
	require.Equal(t, int64(1024), cfg.Chat.MaxTokens)
	require.Equal(t, "whisper-large", cfg.Transcription.Model)
	require.Equal(t, CaptureFile, cfg.Capture.Backend)
	require.Equal(t, []string{"arecord", "-f", "S16_LE", "-r", "16000"}, cfg.Capture.RecorderArgv)
}

func TestFromEnvRejectsMalformedNumbers(t *testing.T) {
	t.Parallel()

	_, err := FromEnv(env(map[string]string{EnvAPIKeyHost: "sk", EnvChatTemperature: "warm"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvChatTemperature)

	_, err = FromEnv(env(map[string]string{EnvAPIKeyHost: "sk", EnvChatMaxTokens: "many"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvChatMaxTokens)
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{name: "unknown runtime", mutate: func(c *Config) { c.Runtime = "browser" }, message: "runtime"},
		{name: "empty chat model", mutate: func(c *Config) { c.Chat.Model = " " }, message: "chat.model"},
		{name: "temperature out of range", mutate: func(c *Config) { c.Chat.Temperature = 2.5 }, message: "chat.temperature"},
		{name: "non-positive max tokens", mutate: func(c *Config) { c.Chat.MaxTokens = 0 }, message: "chat.max_tokens"},
		{name: "empty transcription model", mutate: func(c *Config) { c.Transcription.Model = "" }, message: "transcription.model"},
		{name: "unknown capture backend", mutate: func(c *Config) { c.Capture.Backend = "tape" }, message: "capture.backend"},
		{name: "file backend without recorder", mutate: func(c *Config) {
			c.Capture.Backend = CaptureFile
			c.Capture.RecorderArgv = nil
		}, message: "capture.recorder_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestCredentialNeverExposesTokenInDiagnostics(t *testing.T) {
	t.Parallel()

	cred := NewCredential("  sk-secret-token  ")
	require.True(t, cred.Present())
	require.Equal(t, len("sk-secret-token"), cred.Length())
	require.Equal(t, "sk-secret-token", cred.Token())
	require.NotContains(t, cred.String(), "secret")
	require.NotContains(t, cred.LogValue().String(), "secret")

	absent := NewCredential("   ")
	require.False(t, absent.Present())
	require.Zero(t, absent.Length())
	require.Equal(t, "credential(absent)", absent.String())
}

func TestDefaultRecorderArgvIsWavRecorder(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotEmpty(t, cfg.Capture.RecorderArgv)
	require.Equal(t, "parecord", cfg.Capture.RecorderArgv[0])
	require.True(t, strings.HasPrefix(cfg.Capture.RecorderArgv[1], "--file-format"))
}
