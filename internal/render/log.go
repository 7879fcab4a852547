package render

import (
	"context"
	"log/slog"

	"github.com/rbright/talker/internal/presentation"
)

// LogBackend records frame changes in the runtime log for headless use.
type LogBackend struct {
	logger   *slog.Logger
	geometry Geometry
}

// Draw implements Backend.
func (b *LogBackend) Draw(ctx context.Context, frame presentation.Frame) error {
	if b.logger == nil {
		return nil
	}
	b.logger.LogAttrs(ctx, slog.LevelInfo, "frame",
		slog.String("name", frame.Name),
		slog.String("path", frame.Path),
		slog.Bool("visible", frame.Visible),
		slog.String("state", string(frame.State)),
		slog.Int("cursor", frame.Cursor),
		slog.Int("size", b.geometry.Size),
		slog.String("corner", b.geometry.Corner),
	)
	return nil
}
