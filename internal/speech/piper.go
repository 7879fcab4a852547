package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PiperBackend renders phrases to a temporary WAV with the piper CLI and
// plays the artifact.
type PiperBackend struct {
	binary  string
	model   string
	config  string
	player  Player
	tempDir string
	logger  *slog.Logger
}

// PiperOption configures a PiperBackend.
type PiperOption func(*PiperBackend)

// WithTempDir sets where temporary WAV artifacts are created.
func WithTempDir(dir string) PiperOption {
	return func(p *PiperBackend) {
		p.tempDir = dir
	}
}

// NewPiperBackend builds the preferred backend from cfg.
func NewPiperBackend(cfg BackendConfig, player Player, logger *slog.Logger, opts ...PiperOption) *PiperBackend {
	p := &PiperBackend{
		binary: cfg.PiperBinary,
		model:  cfg.PiperModel,
		config: cfg.PiperConfig,
		player: player,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "Piper (<model file>)".
func (p *PiperBackend) Name() string {
	return fmt.Sprintf("Piper (%s)", filepath.Base(p.model))
}

// Ready checks binary and model on every call; the model may appear or
// disappear while the daemon runs.
func (p *PiperBackend) Ready() error {
	if p.binary == "" {
		return fmt.Errorf("%w: piper binary not found", ErrPreferredUnavailable)
	}
	if p.model == "" {
		return fmt.Errorf("%w: piper model not configured", ErrPreferredUnavailable)
	}
	if _, err := os.Stat(p.model); err != nil {
		return fmt.Errorf("%w: piper model %q: %v", ErrPreferredUnavailable, p.model, err)
	}
	return nil
}

// Speak synthesizes phrase into a temporary WAV and plays it. The artifact
// is removed on every return path.
func (p *PiperBackend) Speak(ctx context.Context, phrase string) error {
	tmp, err := os.CreateTemp(p.tempDir, "talker-*.wav")
	if err != nil {
		return fmt.Errorf("%w: create temp artifact: %v", ErrPreferredFailed, err)
	}
	wavPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err := os.Remove(wavPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.debug(ctx, "remove temp artifact failed", err)
		}
	}()

	if err := p.synthesize(ctx, phrase, wavPath); err != nil {
		return err
	}

	if err := p.player.Play(ctx, wavPath); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	return nil
}

func (p *PiperBackend) synthesize(ctx context.Context, phrase, wavPath string) error {
	args := []string{"--model", p.model, "--output_file", wavPath}
	if p.config != "" {
		if _, err := os.Stat(p.config); err == nil {
			args = append(args, "--config", p.config)
		}
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = strings.NewReader(phrase)
	cmd.Stdout = io.Discard
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		trimmed := strings.TrimSpace(stderr.String())
		if trimmed == "" {
			return fmt.Errorf("%w: %v", ErrPreferredFailed, err)
		}
		return fmt.Errorf("%w: %v (%s)", ErrPreferredFailed, err, lastLine(trimmed))
	}
	return nil
}

func (p *PiperBackend) debug(ctx context.Context, message string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(message, "utterance_id", UtteranceID(ctx), "error", err.Error())
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
