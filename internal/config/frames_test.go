package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFramesWithoutAssetDirKeepsNames(t *testing.T) {
	cfg := Default().Presentation

	frames, warnings, err := ResolveFrames(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, cfg.Frames, frames)
}

func TestResolveFramesDropsMissingSpeakingFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"MRT_mouth_closed.png", "MRT_mouth_open.png", "MRT_mouth_o_face.png", "MRT_mouth_end_1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o600))
	}
	cfg := Default().Presentation
	cfg.AssetDir = dir

	frames, warnings, err := ResolveFrames(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "MRT_mouth_closed.png"), frames.Closed)
	require.Equal(t, []string{
		filepath.Join(dir, "MRT_mouth_open.png"),
		filepath.Join(dir, "MRT_mouth_o_face.png"),
	}, frames.Speaking)
	require.Equal(t, filepath.Join(dir, "MRT_mouth_end_1.png"), frames.End)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "MRT_mouth_A_face.png")
}

func TestResolveFramesDisablesMissingEndFrame(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "open.png"), []byte("png"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "closed.png"), []byte("png"), 0o600))
	cfg := PresentationConfig{
		AssetDir: dir,
		Frames:   FramesConfig{Closed: "closed.png", Speaking: []string{"open.png"}, End: "end.png"},
	}

	frames, warnings, err := ResolveFrames(cfg)
	require.NoError(t, err)
	require.Empty(t, frames.End)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "end flourish disabled")
}

func TestResolveFramesFailsOnMissingRequiredFrames(t *testing.T) {
	tests := []struct {
		name    string
		present []string
		wantErr string
	}{
		{name: "empty dir", present: nil, wantErr: "open frame"},
		{name: "open missing", present: []string{"closed.png", "A_face.png", "end.png"}, wantErr: "open frame"},
		{name: "closed missing", present: []string{"open.png", "A_face.png", "end.png"}, wantErr: "closed frame"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tc.present {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o600))
			}
			cfg := PresentationConfig{
				AssetDir: dir,
				Frames:   FramesConfig{Closed: "closed.png", Speaking: []string{"open.png", "A_face.png"}, End: "end.png"},
			}

			frames, _, err := ResolveFrames(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
			require.Empty(t, frames.Speaking)
		})
	}
}

func TestResolveFramesFailsWithoutConfiguredSpeakingFrames(t *testing.T) {
	cfg := PresentationConfig{AssetDir: t.TempDir(), Frames: FramesConfig{Closed: "closed.png"}}

	_, _, err := ResolveFrames(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no speaking frames")
}

func TestResolveFramesKeepsAbsoluteNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "closed.png"), []byte("png"), 0o600))
	abs := filepath.Join(t.TempDir(), "open.png")
	require.NoError(t, os.WriteFile(abs, []byte("png"), 0o600))
	cfg := PresentationConfig{
		AssetDir: dir,
		Frames:   FramesConfig{Closed: "closed.png", Speaking: []string{abs}},
	}

	frames, _, err := ResolveFrames(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{abs}, frames.Speaking)
}
