// Package doctor runs readiness diagnostics for credentials, endpoints, and capture tooling.
package doctor

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/nvcoach/nvcoach/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes readiness checks for a materialized config. The credential
// check never reveals the token, only presence and length.
func Run(cfg config.Config) Report {
	checks := []Check{
		checkCredential(cfg),
		checkBaseURL(cfg.BaseURL),
		checkModels(cfg),
		checkCapture(cfg.Capture),
	}
	return Report{Checks: checks}
}

func checkCredential(cfg config.Config) Check {
	if !cfg.Credential.Present() {
		key := config.EnvAPIKeyHost
		if cfg.Runtime == config.RuntimeWeb {
			key = config.EnvAPIKeyWeb
		}
		return Check{Name: "credential", Pass: false, Message: fmt.Sprintf("%s is not set", key)}
	}
	return Check{Name: "credential", Pass: true, Message: fmt.Sprintf("present (length %d)", cfg.Credential.Length())}
}

func checkBaseURL(base string) Check {
	if base == "" {
		return Check{Name: "base_url", Pass: true, Message: "using service default"}
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Check{Name: "base_url", Pass: false, Message: fmt.Sprintf("not an absolute http(s) URL: %q", base)}
	}
	return Check{Name: "base_url", Pass: true, Message: fmt.Sprintf("using %s", base)}
}

func checkModels(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Chat.Model) == "" || strings.TrimSpace(cfg.Transcription.Model) == "" {
		return Check{Name: "models", Pass: false, Message: "chat or transcription model is empty"}
	}
	return Check{
		Name:    "models",
		Pass:    true,
		Message: fmt.Sprintf("chat=%s transcription=%s", cfg.Chat.Model, cfg.Transcription.Model),
	}
}

// checkCapture validates the selected capture backend. The file backend needs
// a runnable recorder binary; the device backend is probed at session start.
func checkCapture(capture config.CaptureConfig) Check {
	switch capture.Backend {
	case config.CapturePulse:
		return Check{Name: "capture", Pass: true, Message: "device backend selected (probed at record start)"}
	case config.CaptureFile:
		if len(capture.RecorderArgv) == 0 {
			return Check{Name: "capture", Pass: false, Message: "recorder command is empty"}
		}
		path, err := exec.LookPath(capture.RecorderArgv[0])
		if err != nil {
			return Check{Name: "capture", Pass: false, Message: fmt.Sprintf("recorder not found in PATH: %s", capture.RecorderArgv[0])}
		}
		return Check{Name: "capture", Pass: true, Message: fmt.Sprintf("recorder found at %s", path)}
	default:
		return Check{Name: "capture", Pass: false, Message: fmt.Sprintf("unknown backend %q", capture.Backend)}
	}
}
