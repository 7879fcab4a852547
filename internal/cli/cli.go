// Package cli parses talker's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/talker/internal/schedule"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandSpeak   Command = "speak"
	CommandMode    Command = "mode"
	CommandStatus  Command = "status"
	CommandVoice   Command = "voice"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// validCommands maps each command to the number of positional args it takes.
var validCommands = map[Command]int{
	CommandRun:     0,
	CommandSpeak:   0,
	CommandMode:    1,
	CommandStatus:  0,
	CommandVoice:   0,
	CommandDevices: 0,
	CommandDoctor:  0,
	CommandVersion: 0,
	CommandHelp:    0,
}

type Parsed struct {
	Command    Command
	Arg        string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			want, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if len(rest) < want {
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			}
			if len(rest) > want {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if want == 1 {
				parsed.Arg = rest[0]
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	var modes strings.Builder
	for _, mode := range schedule.Modes {
		fmt.Fprintf(&modes, "  %-11s %s\n", mode, mode.Label())
	}

	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [ARG]

Commands:
  run       Start the speaking avatar daemon
  speak     Speak a phrase now unless already speaking
  mode M    Set the schedule mode (see Modes)
  status    Print avatar state, schedule mode, and next trigger
  voice     Print the speech backend the next utterance will use
  devices   List available output sinks
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Modes:
%[2]s
Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/talker/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName, modes.String())
}
