package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvcoach/nvcoach/config"
)

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Credential = config.NewCredential("sk-test-credential")
	return cfg
}

func findCheck(t *testing.T, report Report, name string) Check {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q not found in report", name)
	return Check{}
}

func TestRunAllChecksPass(t *testing.T) {
	t.Parallel()

	report := Run(validConfig())
	require.True(t, report.OK(), report.String())
}

func TestCredentialCheckReportsLengthNotValue(t *testing.T) {
	t.Parallel()

	report := Run(validConfig())
	check := findCheck(t, report, "credential")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "length 18")
	require.NotContains(t, check.Message, "sk-test-credential")
}

func TestMissingCredentialNamesTheEnvKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Credential = config.Credential{}

	check := findCheck(t, Run(cfg), "credential")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, config.EnvAPIKeyHost)

	cfg.Runtime = config.RuntimeWeb
	check = findCheck(t, Run(cfg), "credential")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, config.EnvAPIKeyWeb)
}

func TestBaseURLCheck(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.BaseURL = "https://proxy.example.com/v1"
	require.True(t, findCheck(t, Run(cfg), "base_url").Pass)

	cfg.BaseURL = "not a url"
	require.False(t, findCheck(t, Run(cfg), "base_url").Pass)

	cfg.BaseURL = "ftp://example.com"
	require.False(t, findCheck(t, Run(cfg), "base_url").Pass)
}

func TestFileCaptureCheckRequiresRecorderBinary(t *testing.T) {
	recorder := filepath.Join(t.TempDir(), "recorder.sh")
	require.NoError(t, os.WriteFile(recorder, []byte("#!/bin/sh\n"), 0o755))

	cfg := validConfig()
	cfg.Capture.Backend = config.CaptureFile
	cfg.Capture.RecorderArgv = []string{recorder}

	check := findCheck(t, Run(cfg), "capture")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, recorder)

	cfg.Capture.RecorderArgv = []string{"/definitely/not/a/recorder"}
	check = findCheck(t, Run(cfg), "capture")
	require.False(t, check.Pass)
}

func TestUnknownCaptureBackendFails(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Capture.Backend = "jack"

	check := findCheck(t, Run(cfg), "capture")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "jack")
}

func TestReportStringRendersStatusLines(t *testing.T) {
	t.Parallel()

	report := Report{Checks: []Check{
		{Name: "a", Pass: true, Message: "fine"},
		{Name: "b", Pass: false, Message: "broken"},
	}}
	out := report.String()
	require.Contains(t, out, "[OK] a: fine")
	require.Contains(t, out, "[FAIL] b: broken")
	require.False(t, report.OK())
}
