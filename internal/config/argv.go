package config

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		current strings.Builder
		quote   rune
		escape  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		argv = append(argv, current.String())
		current.Reset()
	}

	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	flush()
	return argv, nil
}

// commandPlaceholders lists the substitutions each configurable command receives.
var commandPlaceholders = map[string][]string{
	"speech.fallback.command": {"voice", "rate", "text"},
	"speech.player.command":   {"path"},
	"render.command":          {"frame", "path", "visible", "size", "corner", "margin"},
}

// checkPlaceholders rejects {name} tokens the command at key never receives,
// so a typo fails at load instead of reaching the child process verbatim.
func checkPlaceholders(key string, argv []string) error {
	allowed, ok := commandPlaceholders[key]
	if !ok {
		return nil
	}
	for _, arg := range argv {
		for _, name := range placeholderNames(arg) {
			if !slices.Contains(allowed, name) {
				return fmt.Errorf("unknown placeholder {%s} (expected one of %s)", name, formatPlaceholders(allowed))
			}
		}
	}
	return nil
}

func placeholderNames(arg string) []string {
	var names []string
	for {
		open := strings.IndexByte(arg, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(arg[open+1:], '}')
		if end < 0 {
			return names
		}
		name := arg[open+1 : open+1+end]
		if isPlaceholderName(name) {
			names = append(names, name)
		}
		arg = arg[open+1+end+1:]
	}
}

func isPlaceholderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

func formatPlaceholders(names []string) string {
	wrapped := make([]string, len(names))
	for i, name := range names {
		wrapped[i] = "{" + name + "}"
	}
	return strings.Join(wrapped, " ")
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
