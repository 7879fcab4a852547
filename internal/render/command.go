package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rbright/talker/internal/presentation"
)

// CommandBackend runs a user command per frame change, for example a small
// image overlay. Placeholders: {frame} {path} {visible} {size} {corner} {margin}.
type CommandBackend struct {
	argv     []string
	geometry Geometry
}

// Draw implements Backend.
func (b *CommandBackend) Draw(ctx context.Context, frame presentation.Frame) error {
	argv := b.expand(frame)
	if len(argv) == 0 {
		return errors.New("render command is empty")
	}

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("render command failed: %w", err)
		}
		return fmt.Errorf("render command failed: %w (%s)", err, trimmed)
	}
	return nil
}

func (b *CommandBackend) expand(frame presentation.Frame) []string {
	replacer := strings.NewReplacer(
		"{frame}", frame.Name,
		"{path}", frame.Path,
		"{visible}", strconv.FormatBool(frame.Visible),
		"{size}", strconv.Itoa(b.geometry.Size),
		"{corner}", b.geometry.Corner,
		"{margin}", strconv.Itoa(b.geometry.Margin),
	)
	out := make([]string, 0, len(b.argv))
	for _, arg := range b.argv {
		out = append(out, replacer.Replace(arg))
	}
	return out
}
