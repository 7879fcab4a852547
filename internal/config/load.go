package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, overlays environment, and validates the
// runtime configuration. An optional .env in the working directory is
// loaded first.
func Load(explicitPath string) (Loaded, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Loaded{}, err
	}

	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	var warnings []Warning
	exists := true

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		exists = false
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		parsed, parseWarnings, err := decode(string(content), cfg)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		cfg = parsed
		warnings = append(warnings, parseWarnings...)
	}

	warnings = append(warnings, applyEnv(&cfg, lookupEnv)...)

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("invalid config %q: %w", resolvedPath, err)
	}
	warnings = append(warnings, validatedWarnings...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   exists,
	}, nil
}
