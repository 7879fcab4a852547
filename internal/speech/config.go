package speech

import (
	"os/exec"
	"strings"

	"github.com/rbright/talker/internal/config"
)

// BackendConfig is the startup snapshot of backend resources. It is computed
// once and never reloaded.
type BackendConfig struct {
	PiperBinary   string // resolved path; empty when not on PATH
	PiperModel    string
	PiperConfig   string
	FallbackArgv  []string
	FallbackVoice string
	FallbackRate  int
}

// NewBackendConfig resolves executables from PATH for cfg.
func NewBackendConfig(cfg config.SpeechConfig) BackendConfig {
	bin := ""
	if name := strings.TrimSpace(cfg.Piper.Binary); name != "" {
		if resolved, err := exec.LookPath(name); err == nil {
			bin = resolved
		}
	}
	return BackendConfig{
		PiperBinary:   bin,
		PiperModel:    strings.TrimSpace(cfg.Piper.Model),
		PiperConfig:   strings.TrimSpace(cfg.Piper.Config),
		FallbackArgv:  append([]string(nil), cfg.Fallback.Command.Argv...),
		FallbackVoice: cfg.Fallback.Voice,
		FallbackRate:  cfg.Fallback.Rate,
	}
}
