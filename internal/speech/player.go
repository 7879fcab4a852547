package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rbright/talker/internal/audio"
	"github.com/rbright/talker/internal/config"
)

// Player plays a rendered WAV artifact, blocking until it finishes.
type Player interface {
	Play(ctx context.Context, path string) error
}

// NewPlayer builds the configured player backend.
func NewPlayer(cfg config.PlayerConfig) (Player, error) {
	switch cfg.Backend {
	case config.PlayerPulse:
		return &PulsePlayer{sink: cfg.Sink}, nil
	case config.PlayerOto:
		return &OtoPlayer{}, nil
	case config.PlayerCommand:
		return &CommandPlayer{argv: append([]string(nil), cfg.Command.Argv...)}, nil
	default:
		return nil, fmt.Errorf("unknown player backend %q", cfg.Backend)
	}
}

// PulsePlayer streams WAV samples to a Pulse sink.
type PulsePlayer struct {
	sink string
}

// Play decodes path and plays it on the configured sink.
func (p *PulsePlayer) Play(ctx context.Context, path string) error {
	format, pcm, err := readWAV(path)
	if err != nil {
		return err
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("unsupported WAV sample width %d", format.BitsPerSample)
	}

	sinkID := ""
	if s := strings.TrimSpace(p.sink); s != "" && !strings.EqualFold(s, "default") {
		selection, err := audio.SelectDevice(ctx, s)
		if err != nil {
			return err
		}
		sinkID = selection.Device.ID
	}

	return audio.Play(ctx, sinkID, audio.Format{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, int16Samples(pcm))
}

// OtoPlayer plays through the platform audio device. The oto context is
// process-wide and fixed to the format of the first artifact.
type OtoPlayer struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format wavFormat
}

// Play decodes path and blocks until oto finishes playing it.
func (p *OtoPlayer) Play(ctx context.Context, path string) error {
	format, pcm, err := readWAV(path)
	if err != nil {
		return err
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("unsupported WAV sample width %d", format.BitsPerSample)
	}

	octx, err := p.context(format)
	if err != nil {
		return err
	}

	player := octx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			_ = player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return player.Close()
}

func (p *OtoPlayer) context(format wavFormat) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		if format != p.format {
			return nil, fmt.Errorf("oto context is %d Hz/%d ch; artifact is %d Hz/%d ch",
				p.format.SampleRate, p.format.Channels, format.SampleRate, format.Channels)
		}
		return p.ctx, nil
	}

	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("init oto context: %w", err)
	}
	<-ready

	p.ctx = octx
	p.format = format
	return octx, nil
}

// CommandPlayer hands the artifact to an external player such as pw-play or
// afplay. The path is appended unless argv contains {path}.
type CommandPlayer struct {
	argv []string
}

// Play runs the player command synchronously.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	if len(p.argv) == 0 {
		return errors.New("player command is empty")
	}

	args := make([]string, 0, len(p.argv))
	hasPath := false
	for _, arg := range p.argv[1:] {
		if strings.Contains(arg, "{path}") {
			hasPath = true
			arg = strings.ReplaceAll(arg, "{path}", path)
		}
		args = append(args, arg)
	}
	if !hasPath {
		args = append(args, path)
	}

	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		trimmed := strings.TrimSpace(stderr.String())
		if trimmed == "" {
			return fmt.Errorf("%s: %w", p.argv[0], err)
		}
		return fmt.Errorf("%s: %w (%s)", p.argv[0], err, lastLine(trimmed))
	}
	return nil
}

func readWAV(path string) (wavFormat, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wavFormat{}, nil, fmt.Errorf("read artifact: %w", err)
	}
	format, pcm, err := decodeWAV(data)
	if err != nil {
		return wavFormat{}, nil, fmt.Errorf("decode artifact: %w", err)
	}
	return format, pcm, nil
}
