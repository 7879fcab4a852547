// Package render delivers avatar frame changes to an external surface.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/talker/internal/config"
	"github.com/rbright/talker/internal/presentation"
)

const drawTimeout = time.Second

// Backend draws one frame. Hidden frames dismiss the surface.
type Backend interface {
	Draw(ctx context.Context, frame presentation.Frame) error
}

// Geometry is the fixed region the surface occupies; talker never lays it out.
type Geometry struct {
	Size   int
	Margin int
	Corner string
}

// New builds the configured backend.
func New(cfg config.RenderConfig, logger *slog.Logger) (Backend, error) {
	geometry := Geometry{Size: cfg.Size, Margin: cfg.Margin, Corner: cfg.Corner}
	switch cfg.Backend {
	case config.RenderLog:
		return &LogBackend{logger: logger, geometry: geometry}, nil
	case config.RenderDesktop:
		return &DesktopBackend{appName: cfg.DesktopAppName}, nil
	case config.RenderCommand:
		return &CommandBackend{argv: append([]string(nil), cfg.Command.Argv...), geometry: geometry}, nil
	case config.RenderNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Backend)
	}
}

// Discard drops every frame.
type Discard struct{}

// Draw implements Backend.
func (Discard) Draw(context.Context, presentation.Frame) error { return nil }

// Dispatcher hands frames to a Backend off the caller's goroutine. Only the
// latest undelivered frame is kept, so a slow backend skips intermediate
// frames instead of stalling the caller.
type Dispatcher struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.Mutex
	pending *presentation.Frame
	wake    chan struct{}
}

// NewDispatcher wraps backend for asynchronous latest-wins delivery.
func NewDispatcher(backend Backend, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// Render queues frame, replacing any frame not yet drawn. It never blocks.
func (d *Dispatcher) Render(frame presentation.Frame) {
	d.mu.Lock()
	d.pending = &frame
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run draws queued frames until ctx is done, then flushes the last pending
// frame so the surface does not stay on a speaking pose.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if frame, ok := d.take(); ok {
				d.draw(context.Background(), frame)
			}
			return
		case <-d.wake:
			if frame, ok := d.take(); ok {
				d.draw(ctx, frame)
			}
		}
	}
}

func (d *Dispatcher) take() (presentation.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return presentation.Frame{}, false
	}
	frame := *d.pending
	d.pending = nil
	return frame, true
}

func (d *Dispatcher) draw(ctx context.Context, frame presentation.Frame) {
	drawCtx, cancel := context.WithTimeout(ctx, drawTimeout)
	defer cancel()
	if err := d.backend.Draw(drawCtx, frame); err != nil && d.logger != nil {
		d.logger.Debug("render dispatch failed", "frame", frame.Name, "visible", frame.Visible, "error", err.Error())
	}
}
