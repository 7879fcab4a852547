package config

import (
	"fmt"
	"strings"

	"github.com/rbright/talker/internal/schedule"
)

// maxTickMS keeps the outer tick driver at or above 2 Hz.
const maxTickMS = 500

var corners = map[string]bool{
	"top-left":     true,
	"top-right":    true,
	"bottom-left":  true,
	"bottom-right": true,
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if _, err := schedule.ParseMode(string(cfg.Schedule.Mode)); err != nil {
		return nil, fmt.Errorf("schedule.mode: %w", err)
	}
	if cfg.Schedule.TickMS <= 0 || cfg.Schedule.TickMS > maxTickMS {
		return nil, fmt.Errorf("schedule.tick_ms must be in (0, %d]", maxTickMS)
	}

	if len(cfg.Speech.Fallback.Command.Argv) == 0 {
		return nil, fmt.Errorf("speech.fallback.command must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.Fallback.Voice) == "" {
		return nil, fmt.Errorf("speech.fallback.voice must not be empty")
	}
	if cfg.Speech.Fallback.Rate <= 0 {
		return nil, fmt.Errorf("speech.fallback.rate must be > 0")
	}

	switch cfg.Speech.Player.Backend {
	case PlayerPulse, PlayerOto:
	case PlayerCommand:
		if len(cfg.Speech.Player.Command.Argv) == 0 {
			return nil, fmt.Errorf("speech.player.command must not be empty when speech.player.backend=command")
		}
	default:
		return nil, fmt.Errorf("speech.player.backend must be one of: pulse, oto, command")
	}

	if strings.TrimSpace(cfg.Speech.Piper.Model) == "" {
		warnings = append(warnings, Warning{Message: "speech.piper.model is not set; using fallback speech"})
	}

	p := cfg.Presentation
	if p.FrameIntervalMS <= 0 {
		return nil, fmt.Errorf("presentation.frame_interval_ms must be > 0")
	}
	if p.FlourishProbability < 0 || p.FlourishProbability > 1 {
		return nil, fmt.Errorf("presentation.flourish_probability must be in [0, 1]")
	}
	if p.FlourishHoldMS < 0 {
		return nil, fmt.Errorf("presentation.flourish_hold_ms must be >= 0")
	}
	if strings.TrimSpace(p.Frames.Closed) == "" {
		return nil, fmt.Errorf("presentation.frames.closed must not be empty")
	}
	if len(p.Frames.Speaking) == 0 {
		return nil, fmt.Errorf("presentation.frames.speaking must list at least one frame")
	}
	if p.Frames.End == "" && p.FlourishProbability > 0 {
		warnings = append(warnings, Warning{Message: "presentation.frames.end is empty; end flourish disabled"})
	}

	switch cfg.Render.Backend {
	case RenderLog, RenderNone:
	case RenderDesktop:
		if strings.TrimSpace(cfg.Render.DesktopAppName) == "" {
			return nil, fmt.Errorf("render.desktop_app_name must not be empty when render.backend=desktop")
		}
	case RenderCommand:
		if len(cfg.Render.Command.Argv) == 0 {
			return nil, fmt.Errorf("render.command must not be empty when render.backend=command")
		}
	default:
		return nil, fmt.Errorf("render.backend must be one of: log, desktop, command, none")
	}
	if cfg.Render.Size <= 0 {
		return nil, fmt.Errorf("render.size must be > 0")
	}
	if cfg.Render.Margin < 0 {
		return nil, fmt.Errorf("render.margin must be >= 0")
	}
	if !corners[cfg.Render.Corner] {
		return nil, fmt.Errorf("render.corner must be one of: top-left, top-right, bottom-left, bottom-right")
	}

	return warnings, nil
}
