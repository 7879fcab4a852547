package speech

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/talker/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewPlayerSelectsBackend(t *testing.T) {
	cfg := config.Default().Speech.Player
	cfg.Backend = config.PlayerPulse

	player, err := NewPlayer(cfg)
	require.NoError(t, err)
	require.IsType(t, &PulsePlayer{}, player)

	cfg.Backend = config.PlayerOto
	player, err = NewPlayer(cfg)
	require.NoError(t, err)
	require.IsType(t, &OtoPlayer{}, player)

	cfg.Backend = config.PlayerCommand
	player, err = NewPlayer(cfg)
	require.NoError(t, err)
	require.IsType(t, &CommandPlayer{}, player)

	cfg.Backend = "alsa"
	_, err = NewPlayer(cfg)
	require.Error(t, err)
}

func TestCommandPlayerAppendsPath(t *testing.T) {
	bin, argsFile := writeArgsScript(t, "pw-play")
	player := &CommandPlayer{argv: []string{bin, "--media-role", "Notification"}}

	require.NoError(t, player.Play(context.Background(), "/tmp/talker-1.wav"))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--media-role\nNotification\n/tmp/talker-1.wav\n", string(data))
}

func TestCommandPlayerSubstitutesPathPlaceholder(t *testing.T) {
	bin, argsFile := writeArgsScript(t, "afplay")
	player := &CommandPlayer{argv: []string{bin, "--file={path}", "-q"}}

	require.NoError(t, player.Play(context.Background(), "/tmp/a.wav"))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--file=/tmp/a.wav\n-q\n", string(data))
}

func TestCommandPlayerErrors(t *testing.T) {
	err := (&CommandPlayer{}).Play(context.Background(), "/tmp/a.wav")
	require.ErrorContains(t, err, "empty")

	err = (&CommandPlayer{argv: []string{writeFailScript(t, "no such sink")}}).Play(context.Background(), "/tmp/a.wav")
	require.ErrorContains(t, err, "no such sink")
}

func TestInProcessPlayersRejectUnplayableArtifacts(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav at all"), 0o600))

	wide := buildWAV(22050, 1, []int16{1, 2})
	binary.LittleEndian.PutUint16(wide[34:36], 24)
	widePath := filepath.Join(dir, "wide.wav")
	require.NoError(t, os.WriteFile(widePath, wide, 0o600))

	for _, player := range []Player{&PulsePlayer{}, &OtoPlayer{}} {
		err := player.Play(context.Background(), filepath.Join(dir, "missing.wav"))
		require.ErrorContains(t, err, "read artifact")

		err = player.Play(context.Background(), garbage)
		require.ErrorContains(t, err, "decode artifact")

		err = player.Play(context.Background(), widePath)
		require.ErrorContains(t, err, "sample width 24")
	}
}

func TestPulsePlayerFailsWithoutServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	path := filepath.Join(t.TempDir(), "ok.wav")
	require.NoError(t, os.WriteFile(path, buildWAV(22050, 1, []int16{1, 2, 3}), 0o600))

	err := (&PulsePlayer{sink: "default"}).Play(context.Background(), path)
	require.ErrorContains(t, err, "connect pulse server")
}
