package config

import (
	"runtime"

	"github.com/rbright/talker/internal/schedule"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return defaultFor(runtime.GOOS)
}

// defaultFor builds the defaults for goos. macOS has no PulseAudio server,
// so it plays through afplay.
func defaultFor(goos string) Config {
	fallback := "espeak-ng -v {voice} -s {rate}"
	voice := "en-us"
	player := "pw-play"
	playerBackend := PlayerPulse
	if goos == "darwin" {
		fallback = "/usr/bin/say -v {voice} -r {rate}"
		voice = "Ralph"
		player = "afplay"
		playerBackend = PlayerCommand
	}

	return Config{
		Schedule: ScheduleConfig{
			Mode:   schedule.ModeEveryTenMinutes,
			TickMS: 500,
		},
		Speech: SpeechConfig{
			Piper: PiperConfig{Binary: "piper"},
			Fallback: FallbackConfig{
				Command: CommandConfig{Raw: fallback, Argv: mustParseArgv(fallback)},
				Voice:   voice,
				Rate:    150,
			},
			Player: PlayerConfig{
				Backend: playerBackend,
				Command: CommandConfig{Raw: player, Argv: mustParseArgv(player)},
				Sink:    "default",
			},
		},
		Presentation: PresentationConfig{
			FrameIntervalMS:     120,
			FlourishProbability: 0.16,
			FlourishHoldMS:      240,
			Frames: FramesConfig{
				Closed:   "MRT_mouth_closed.png",
				Speaking: []string{"MRT_mouth_open.png", "MRT_mouth_A_face.png", "MRT_mouth_o_face.png"},
				End:      "MRT_mouth_end_1.png",
			},
		},
		Render: RenderConfig{
			Backend:        RenderLog,
			DesktopAppName: "talker",
			Size:           200,
			Margin:         20,
			Corner:         "top-right",
		},
	}
}
