package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandBackend speaks through an OS speech utility such as say or
// espeak-ng. Argv placeholders {voice}, {rate}, and {text} are expanded; when
// {text} is absent the phrase is appended as the last argument.
type CommandBackend struct {
	argv  []string
	voice string
	rate  int
}

// NewCommandBackend builds the fallback backend from cfg.
func NewCommandBackend(cfg BackendConfig) *CommandBackend {
	return &CommandBackend{
		argv:  append([]string(nil), cfg.FallbackArgv...),
		voice: cfg.FallbackVoice,
		rate:  cfg.FallbackRate,
	}
}

// Name returns "<utility> (<voice>)", for example "say (Ralph)".
func (c *CommandBackend) Name() string {
	bin := "speech"
	if len(c.argv) > 0 {
		bin = filepath.Base(c.argv[0])
	}
	return fmt.Sprintf("%s (%s)", bin, c.voice)
}

// Speak runs the utility synchronously.
func (c *CommandBackend) Speak(ctx context.Context, phrase string) error {
	argv := c.expand(phrase)
	if len(argv) == 0 {
		return errors.New("fallback command is empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = io.Discard
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		trimmed := strings.TrimSpace(stderr.String())
		if trimmed == "" {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
		return fmt.Errorf("%s: %w (%s)", argv[0], err, lastLine(trimmed))
	}
	return nil
}

func (c *CommandBackend) expand(phrase string) []string {
	if len(c.argv) == 0 {
		return nil
	}
	replacer := strings.NewReplacer(
		"{voice}", c.voice,
		"{rate}", strconv.Itoa(c.rate),
		"{text}", phrase,
	)
	out := make([]string, 0, len(c.argv)+1)
	hasText := false
	for _, arg := range c.argv {
		if strings.Contains(arg, "{text}") {
			hasText = true
		}
		out = append(out, replacer.Replace(arg))
	}
	if !hasText {
		out = append(out, phrase)
	}
	return out
}
