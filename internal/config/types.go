// Package config resolves, parses, validates, and defaults talker configuration.
package config

import "github.com/rbright/talker/internal/schedule"

// Config is the fully materialized runtime configuration used by talker.
type Config struct {
	Schedule     ScheduleConfig
	Speech       SpeechConfig
	Presentation PresentationConfig
	Render       RenderConfig
	Phrases      PhrasesConfig
}

// ScheduleConfig controls the trigger cadence and the outer tick driver.
type ScheduleConfig struct {
	Mode   schedule.Mode
	TickMS int
}

// SpeechConfig controls the preferred and fallback speech backends.
type SpeechConfig struct {
	Piper    PiperConfig
	Fallback FallbackConfig
	Player   PlayerConfig
}

// PiperConfig locates the neural synthesizer and its voice model.
type PiperConfig struct {
	Binary string
	Model  string
	Config string
}

// FallbackConfig is the OS speech utility invocation.
type FallbackConfig struct {
	Command CommandConfig
	Voice   string
	Rate    int
}

// Player backends for rendered speech artifacts.
const (
	PlayerPulse   = "pulse"
	PlayerOto     = "oto"
	PlayerCommand = "command"
)

// PlayerConfig selects how preferred-backend artifacts are played.
type PlayerConfig struct {
	Backend string
	Command CommandConfig
	Sink    string
}

// PresentationConfig controls avatar animation timing and frames.
type PresentationConfig struct {
	FrameIntervalMS     int
	FlourishProbability float64
	FlourishHoldMS      int
	AssetDir            string
	Frames              FramesConfig
}

// FramesConfig names the closed, speaking, and end-pose images.
type FramesConfig struct {
	Closed   string
	Speaking []string
	End      string
}

// Render backends for frame changes.
const (
	RenderLog     = "log"
	RenderDesktop = "desktop"
	RenderCommand = "command"
	RenderNone    = "none"
)

// RenderConfig selects where frame changes are delivered.
type RenderConfig struct {
	Backend        string
	Command        CommandConfig
	DesktopAppName string
	Size           int
	Margin         int
	Corner         string
}

// PhrasesConfig optionally replaces the built-in phrase catalog.
type PhrasesConfig struct {
	File string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
