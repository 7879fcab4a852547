// Package doctor runs readiness diagnostics for config, speech tools, audio
// output, and rendering.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/talker/internal/audio"
	"github.com/rbright/talker/internal/config"
	"github.com/rbright/talker/internal/ipc"
	"github.com/rbright/talker/internal/phrases"
)

// Check is one doctor assertion result. Informational checks are reported
// but never fail the report.
type Check struct {
	Name          string
	Pass          bool
	Informational bool
	Message       string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when every required check passes.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass && !check.Informational {
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
		switch {
		case !check.Pass && check.Informational:
			status = "WARN"
		case !check.Pass:
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// selectSink is swapped in tests to avoid a live PulseAudio server.
var selectSink = audio.SelectDevice

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMsg = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	checks = append(checks, checkSocket(ipc.RuntimeSocketPath()))

	checks = append(checks, preferredChecks(cfg.Config.Speech.Piper)...)
	checks = append(checks, checkCommand(cfg.Config.Speech.Fallback.Command.Argv, "speech.fallback.command"))
	checks = append(checks, checkPlayer(ctx, cfg.Config.Speech.Player))
	checks = append(checks, checkRender(cfg.Config.Render))
	checks = append(checks, checkPhrases(cfg.Config.Phrases.File))
	checks = append(checks, checkFrames(cfg.Config.Presentation))

	return Report{Checks: checks}
}

// preferredChecks covers the neural backend. Failures are informational
// because the fallback still speaks.
func preferredChecks(cfg config.PiperConfig) []Check {
	bin := checkBinary(cfg.Binary, "preferred speech backend")
	bin.Name = "speech.piper.binary"
	checks := []Check{bin}

	model := Check{Name: "speech.piper.model"}
	switch {
	case strings.TrimSpace(cfg.Model) == "":
		model.Message = "not set; fallback backend will be used"
	default:
		model = checkFile("speech.piper.model", cfg.Model)
	}
	checks = append(checks, model)

	if strings.TrimSpace(cfg.Config) != "" {
		checks = append(checks, checkFile("speech.piper.config", cfg.Config))
	}

	for i := range checks {
		checks[i].Informational = true
	}
	return checks
}

// checkPlayer verifies the configured artifact player can run.
func checkPlayer(ctx context.Context, cfg config.PlayerConfig) Check {
	const name = "speech.player"
	switch cfg.Backend {
	case config.PlayerPulse:
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		selection, err := selectSink(probeCtx, cfg.Sink)
		if err != nil {
			return Check{Name: name, Pass: false, Message: err.Error()}
		}
		message := fmt.Sprintf("pulse sink %q", selection.Device.ID)
		if selection.Warning != "" {
			message = message + " (" + selection.Warning + ")"
		}
		return Check{Name: name, Pass: true, Message: message}
	case config.PlayerOto:
		return Check{Name: name, Pass: true, Message: "in-process (oto)"}
	case config.PlayerCommand:
		check := checkCommand(cfg.Command.Argv, "speech.player.command")
		check.Name = name
		return check
	default:
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("unknown player backend %q", cfg.Backend)}
	}
}

// checkRender verifies the render backend's external tool.
func checkRender(cfg config.RenderConfig) Check {
	const name = "render"
	switch cfg.Backend {
	case config.RenderDesktop:
		check := checkBinary("busctl", "desktop notifications")
		check.Name = name
		return check
	case config.RenderCommand:
		check := checkCommand(cfg.Command.Argv, "render.command")
		check.Name = name
		return check
	default:
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s backend needs no external tools", cfg.Backend)}
	}
}

func checkPhrases(path string) Check {
	catalog, err := phrases.Load(path)
	if err != nil {
		return Check{Name: "phrases", Pass: false, Message: err.Error()}
	}
	source := "built-in catalog"
	if strings.TrimSpace(path) != "" {
		source = path
	}
	return Check{Name: "phrases", Pass: true, Message: fmt.Sprintf("%d phrases from %s", catalog.Len(), source)}
}

func checkFrames(cfg config.PresentationConfig) Check {
	frames, warnings, err := config.ResolveFrames(cfg)
	if err != nil {
		return Check{Name: "presentation.frames", Pass: false, Message: err.Error()}
	}
	if cfg.AssetDir == "" {
		return Check{Name: "presentation.frames", Pass: true, Message: "asset_dir not set; frame names passed through"}
	}
	if len(frames.Speaking) != len(cfg.Frames.Speaking) || len(warnings) > 0 {
		msgs := make([]string, 0, len(warnings))
		for _, w := range warnings {
			msgs = append(msgs, w.Message)
		}
		return Check{Name: "presentation.frames", Pass: false, Message: strings.Join(msgs, "; ")}
	}
	return Check{Name: "presentation.frames", Pass: true, Message: fmt.Sprintf("all frames present in %s", cfg.AssetDir)}
}

// checkSocket reports where talker run will listen; only its directory must exist.
func checkSocket(path string) Check {
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		return Check{Name: "socket", Pass: false, Message: fmt.Sprintf("socket directory for %q is missing", path)}
	}
	return Check{Name: "socket", Pass: true, Message: fmt.Sprintf("daemon socket at %q", path)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	check := checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
	check.Name = name
	return check
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	if strings.TrimSpace(bin) == "" {
		return Check{Name: "binary", Pass: false, Message: "binary is empty"}
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkFile(name, path string) Check {
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	if info.IsDir() {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return Check{Name: name, Pass: true, Message: path}
}
