package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables overlaid on top of the config file.
const (
	EnvPiperModel  = "PIPER_MODEL_PATH"
	EnvPiperConfig = "PIPER_CONFIG_PATH"
	EnvPiperBinary = "PIPER_BIN"
	EnvVoice       = "TALKER_VOICE"
	EnvRate        = "TALKER_RATE"
)

// loadDotEnv reads an optional .env file without overriding set variables.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables on cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) []Warning {
	var warnings []Warning

	if v, ok := lookupTrimmed(lookup, EnvPiperModel); ok {
		cfg.Speech.Piper.Model = expandUserPath(v)
	}
	if v, ok := lookupTrimmed(lookup, EnvPiperConfig); ok {
		cfg.Speech.Piper.Config = expandUserPath(v)
	}
	if v, ok := lookupTrimmed(lookup, EnvPiperBinary); ok {
		cfg.Speech.Piper.Binary = expandUserPath(v)
	}
	if v, ok := lookupTrimmed(lookup, EnvVoice); ok {
		cfg.Speech.Fallback.Voice = v
	}
	if v, ok := lookupTrimmed(lookup, EnvRate); ok {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("%s=%q is not a positive integer; ignoring", EnvRate, v)})
		} else {
			cfg.Speech.Fallback.Rate = rate
		}
	}

	return warnings
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

var lookupEnv = os.LookupEnv
