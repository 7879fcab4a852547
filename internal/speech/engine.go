package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Engine selects a backend for every phrase and owns the fallback policy.
type Engine struct {
	preferred Preferred
	fallback  Backend
	logger    *slog.Logger
}

// NewEngine wires a preferred backend (may be nil) and a required fallback.
func NewEngine(preferred Preferred, fallback Backend, logger *slog.Logger) *Engine {
	return &Engine{preferred: preferred, fallback: fallback, logger: logger}
}

// Description names the backend the next Speak call would try first.
func (e *Engine) Description() string {
	if e.preferredReady() == nil {
		return e.preferred.Name()
	}
	return e.fallback.Name()
}

// Speak blocks until phrase has been spoken or every backend has failed.
// It never returns an error; failures are carried in the Report and logged.
func (e *Engine) Speak(ctx context.Context, phrase string) Report {
	started := time.Now()
	report := e.speak(ctx, phrase)
	report.Duration = time.Since(started)
	return report
}

func (e *Engine) speak(ctx context.Context, phrase string) Report {
	if err := e.preferredReady(); err == nil {
		err := e.preferred.Speak(ctx, phrase)
		switch {
		case err == nil:
			return Report{Backend: e.preferred.Name()}
		case errors.Is(err, ErrPlaybackFailed):
			// The phrase was synthesized; replaying it elsewhere would double up.
			e.log(ctx, slog.LevelWarn, "preferred playback failed", "backend", e.preferred.Name(), "error", err.Error())
			return Report{Backend: e.preferred.Name(), Err: err}
		default:
			e.log(ctx, slog.LevelWarn, "preferred backend failed; falling back", "backend", e.preferred.Name(), "error", err.Error())
		}
		return e.speakFallback(ctx, phrase, true)
	} else if e.preferred != nil {
		e.log(ctx, slog.LevelDebug, "preferred backend skipped", "reason", err.Error())
	}
	return e.speakFallback(ctx, phrase, false)
}

func (e *Engine) speakFallback(ctx context.Context, phrase string, fellBack bool) Report {
	report := Report{Backend: e.fallback.Name(), FellBack: fellBack}
	if err := e.fallback.Speak(ctx, phrase); err != nil {
		report.Err = fmt.Errorf("%w: %v", ErrFallbackFailed, err)
		e.log(ctx, slog.LevelError, "fallback backend failed", "backend", report.Backend, "error", err.Error())
	}
	return report
}

func (e *Engine) preferredReady() error {
	if e.preferred == nil {
		return ErrPreferredUnavailable
	}
	return e.preferred.Ready()
}

func (e *Engine) log(ctx context.Context, level slog.Level, message string, args ...any) {
	if e.logger == nil {
		return
	}
	if id := UtteranceID(ctx); id != "" {
		args = append(args, "utterance_id", id)
	}
	e.logger.Log(ctx, level, message, args...)
}
