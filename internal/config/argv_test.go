package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "espeak-ng -v {voice} -s {rate}", want: []string{"espeak-ng", "-v", "{voice}", "-s", "{rate}"}},
		{name: "quoted spaces", input: `overlay --name "hello world"`, want: []string{"overlay", "--name", "hello world"}},
		{name: "single quote", input: `overlay --name 'hello world'`, want: []string{"overlay", "--name", "hello world"}},
		{name: "escaped space", input: `overlay hello\ world`, want: []string{"overlay", "hello world"}},
		{name: "leading comment", input: `# pw-play --volume 0.5`, want: nil},
		{name: "unterminated quote", input: `overlay "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `overlay hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`overlay "unterminated`)
	})
}

func TestCheckPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		argv    []string
		wantErr string
	}{
		{name: "fallback known", key: "speech.fallback.command", argv: []string{"say", "-v", "{voice}", "-r", "{rate}", "{text}"}},
		{name: "embedded known", key: "speech.player.command", argv: []string{"player", "--file={path}"}},
		{name: "fallback typo", key: "speech.fallback.command", argv: []string{"say", "{txt}"}, wantErr: "unknown placeholder {txt}"},
		{name: "player gets no text", key: "speech.player.command", argv: []string{"pw-play", "{text}"}, wantErr: "expected one of {path}"},
		{name: "render geometry", key: "render.command", argv: []string{"overlay", "{frame}", "{visible}", "{size}x{size}"}},
		{name: "literal braces", key: "render.command", argv: []string{"jq", "{ .a }", "{}"}},
		{name: "unknown key", key: "other.command", argv: []string{"{anything}"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkPlaceholders(tc.key, tc.argv)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
