package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ResolveFrames joins frame names onto asset_dir. When asset_dir is set,
// the open frame (the first speaking frame) and the closed frame must exist.
// Further speaking frames missing on disk are dropped with a warning, and a
// missing end frame disables the end flourish.
func ResolveFrames(cfg PresentationConfig) (FramesConfig, []Warning, error) {
	frames := FramesConfig{
		Closed: join(cfg.AssetDir, cfg.Frames.Closed),
		End:    join(cfg.AssetDir, cfg.Frames.End),
	}
	if cfg.AssetDir == "" {
		frames.Speaking = append([]string(nil), cfg.Frames.Speaking...)
		return frames, nil, nil
	}
	if len(cfg.Frames.Speaking) == 0 {
		return FramesConfig{}, nil, errors.New("no speaking frames configured")
	}

	open := join(cfg.AssetDir, cfg.Frames.Speaking[0])
	if !exists(open) {
		return FramesConfig{}, nil, fmt.Errorf("open frame %q not found", open)
	}
	if !exists(frames.Closed) {
		return FramesConfig{}, nil, fmt.Errorf("closed frame %q not found", frames.Closed)
	}

	var warnings []Warning
	frames.Speaking = []string{open}
	for _, name := range cfg.Frames.Speaking[1:] {
		path := join(cfg.AssetDir, name)
		if !exists(path) {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("speaking frame %q not found; skipping", path)})
			continue
		}
		frames.Speaking = append(frames.Speaking, path)
	}
	if frames.End != "" && !exists(frames.End) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("end frame %q not found; end flourish disabled", frames.End)})
		frames.End = ""
	}
	return frames, warnings, nil
}

func join(dir, name string) string {
	if name == "" || dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
