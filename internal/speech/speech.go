// Package speech turns phrases into audible output through a preferred
// neural synthesizer with a guaranteed command-line fallback.
package speech

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPreferredUnavailable means the preferred backend is not configured
	// or its model resource is missing.
	ErrPreferredUnavailable = errors.New("preferred backend unavailable")
	// ErrPreferredFailed means the synthesis process did not complete successfully.
	ErrPreferredFailed = errors.New("preferred backend failed")
	// ErrPlaybackFailed means a rendered artifact could not be played.
	ErrPlaybackFailed = errors.New("playback failed")
	// ErrFallbackFailed means the fallback backend itself failed.
	ErrFallbackFailed = errors.New("fallback backend failed")
)

// Backend speaks one phrase, blocking until audible output finishes.
type Backend interface {
	Name() string
	Speak(ctx context.Context, phrase string) error
}

// Preferred is a backend whose availability depends on external resources.
type Preferred interface {
	Backend
	Ready() error
}

// Report describes how one Speak call was served.
type Report struct {
	Backend  string
	FellBack bool
	Err      error
	Duration time.Duration
}

// Audible reports whether some backend completed without error.
func (r Report) Audible() bool {
	return r.Err == nil
}

type utteranceKey struct{}

// WithUtteranceID tags ctx so backend logs can be correlated.
func WithUtteranceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, utteranceKey{}, id)
}

// UtteranceID returns the tag set by WithUtteranceID.
func UtteranceID(ctx context.Context) string {
	id, _ := ctx.Value(utteranceKey{}).(string)
	return id
}
