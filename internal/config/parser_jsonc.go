package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rbright/talker/internal/schedule"
)

type jsoncConfig struct {
	Schedule     *jsoncSchedule     `json:"schedule"`
	Speech       *jsoncSpeech       `json:"speech"`
	Presentation *jsoncPresentation `json:"presentation"`
	Render       *jsoncRender       `json:"render"`
	Phrases      *jsoncPhrases      `json:"phrases"`
}

type jsoncSchedule struct {
	Mode   *string `json:"mode"`
	TickMS *int    `json:"tick_ms"`
}

type jsoncSpeech struct {
	Piper    *jsoncPiper    `json:"piper"`
	Fallback *jsoncFallback `json:"fallback"`
	Player   *jsoncPlayer   `json:"player"`
}

type jsoncPiper struct {
	Binary *string `json:"binary"`
	Model  *string `json:"model"`
	Config *string `json:"config"`
}

type jsoncFallback struct {
	Command *string `json:"command"`
	Voice   *string `json:"voice"`
	Rate    *int    `json:"rate"`
}

type jsoncPlayer struct {
	Backend *string `json:"backend"`
	Command *string `json:"command"`
	Sink    *string `json:"sink"`
}

type jsoncPresentation struct {
	FrameIntervalMS     *int         `json:"frame_interval_ms"`
	FlourishProbability *float64     `json:"flourish_probability"`
	FlourishHoldMS      *int         `json:"flourish_hold_ms"`
	AssetDir            *string      `json:"asset_dir"`
	Frames              *jsoncFrames `json:"frames"`
}

type jsoncFrames struct {
	Closed   *string          `json:"closed"`
	Speaking *jsoncStringList `json:"speaking"`
	End      *string          `json:"end"`
}

type jsoncRender struct {
	Backend        *string `json:"backend"`
	Command        *string `json:"command"`
	DesktopAppName *string `json:"desktop_app_name"`
	Size           *int    `json:"size"`
	Margin         *int    `json:"margin"`
	Corner         *string `json:"corner"`
}

type jsoncPhrases struct {
	File *string `json:"file"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

// parseJSONC decodes content over base without validating the result.
func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	cfg.Presentation.Frames.Speaking = append([]string(nil), base.Presentation.Frames.Speaking...)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Schedule != nil {
		if payload.Schedule.Mode != nil {
			mode, err := schedule.ParseMode(*payload.Schedule.Mode)
			if err != nil {
				return nil, fmt.Errorf("invalid schedule.mode: %w", err)
			}
			cfg.Schedule.Mode = mode
		}
		if payload.Schedule.TickMS != nil {
			cfg.Schedule.TickMS = *payload.Schedule.TickMS
		}
	}

	if payload.Speech != nil {
		if err := payload.Speech.applyTo(&cfg.Speech); err != nil {
			return nil, err
		}
	}

	if p := payload.Presentation; p != nil {
		if p.FrameIntervalMS != nil {
			cfg.Presentation.FrameIntervalMS = *p.FrameIntervalMS
		}
		if p.FlourishProbability != nil {
			cfg.Presentation.FlourishProbability = *p.FlourishProbability
		}
		if p.FlourishHoldMS != nil {
			cfg.Presentation.FlourishHoldMS = *p.FlourishHoldMS
		}
		if p.AssetDir != nil {
			cfg.Presentation.AssetDir = expandUserPath(*p.AssetDir)
		}
		if p.Frames != nil {
			if p.Frames.Closed != nil {
				cfg.Presentation.Frames.Closed = strings.TrimSpace(*p.Frames.Closed)
			}
			if p.Frames.Speaking != nil {
				cfg.Presentation.Frames.Speaking = cfg.Presentation.Frames.Speaking[:0]
				for _, name := range *p.Frames.Speaking {
					name = strings.TrimSpace(name)
					if name == "" {
						continue
					}
					cfg.Presentation.Frames.Speaking = append(cfg.Presentation.Frames.Speaking, name)
				}
			}
			if p.Frames.End != nil {
				cfg.Presentation.Frames.End = strings.TrimSpace(*p.Frames.End)
			}
		}
	}

	if r := payload.Render; r != nil {
		if r.Backend != nil {
			cfg.Render.Backend = strings.ToLower(strings.TrimSpace(*r.Backend))
		}
		if r.Command != nil {
			command, err := parseCommand("render.command", *r.Command)
			if err != nil {
				return nil, err
			}
			cfg.Render.Command = command
		}
		if r.DesktopAppName != nil {
			cfg.Render.DesktopAppName = strings.TrimSpace(*r.DesktopAppName)
		}
		if r.Size != nil {
			cfg.Render.Size = *r.Size
		}
		if r.Margin != nil {
			cfg.Render.Margin = *r.Margin
		}
		if r.Corner != nil {
			cfg.Render.Corner = strings.ToLower(strings.TrimSpace(*r.Corner))
		}
	}

	if payload.Phrases != nil && payload.Phrases.File != nil {
		cfg.Phrases.File = expandUserPath(*payload.Phrases.File)
	}

	return warnings, nil
}

func (s jsoncSpeech) applyTo(cfg *SpeechConfig) error {
	if s.Piper != nil {
		if s.Piper.Binary != nil {
			cfg.Piper.Binary = expandUserPath(*s.Piper.Binary)
		}
		if s.Piper.Model != nil {
			cfg.Piper.Model = expandUserPath(*s.Piper.Model)
		}
		if s.Piper.Config != nil {
			cfg.Piper.Config = expandUserPath(*s.Piper.Config)
		}
	}

	if s.Fallback != nil {
		if s.Fallback.Command != nil {
			command, err := parseCommand("speech.fallback.command", *s.Fallback.Command)
			if err != nil {
				return err
			}
			cfg.Fallback.Command = command
		}
		if s.Fallback.Voice != nil {
			cfg.Fallback.Voice = strings.TrimSpace(*s.Fallback.Voice)
		}
		if s.Fallback.Rate != nil {
			cfg.Fallback.Rate = *s.Fallback.Rate
		}
	}

	if s.Player != nil {
		if s.Player.Backend != nil {
			cfg.Player.Backend = strings.ToLower(strings.TrimSpace(*s.Player.Backend))
		}
		if s.Player.Command != nil {
			command, err := parseCommand("speech.player.command", *s.Player.Command)
			if err != nil {
				return err
			}
			cfg.Player.Command = command
		}
		if s.Player.Sink != nil {
			cfg.Player.Sink = strings.TrimSpace(*s.Player.Sink)
		}
	}

	return nil
}

func parseCommand(key, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	if err := checkPlaceholders(key, argv); err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
