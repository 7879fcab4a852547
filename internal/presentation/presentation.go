// Package presentation owns the avatar's speaking animation state and
// derives the frame that should currently be on screen.
package presentation

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rbright/talker/internal/fsm"
)

// ErrAlreadySpeaking is returned by Start when the avatar is not idle.
var ErrAlreadySpeaking = errors.New("already speaking")

// Rand is the random source used for the end-pose draw.
type Rand interface {
	Float64() float64
}

// Frames is the image set the controller selects from.
type Frames struct {
	Closed   string
	Speaking []string
	End      string
}

// Frame is one render instruction for the external collaborator.
type Frame struct {
	Name    string
	Path    string
	Visible bool
	State   fsm.State
	Cursor  int
}

// Outcome reports what Finish did.
type Outcome int

const (
	// OutcomeIgnored means Finish was called outside Speaking.
	OutcomeIgnored Outcome = iota
	// OutcomeClosed means the avatar closed its mouth and hides now.
	OutcomeClosed
	// OutcomeFlourish means the end pose is showing; call Settle after the hold.
	OutcomeFlourish
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClosed:
		return "closed"
	case OutcomeFlourish:
		return "flourish"
	default:
		return "ignored"
	}
}

// Controller is the idle/speaking/end-flourish state machine.
//
// It is not safe for concurrent use; the coordinator's control loop owns it.
type Controller struct {
	frames      Frames
	probability float64
	rng         Rand
	logger      *slog.Logger

	state  fsm.State
	cursor int
}

// NewController validates frames and returns an idle controller.
func NewController(frames Frames, probability float64, rng Rand, logger *slog.Logger) (*Controller, error) {
	if len(frames.Speaking) == 0 {
		return nil, errors.New("at least one speaking frame is required")
	}
	if probability < 0 || probability > 1 {
		return nil, fmt.Errorf("flourish probability %.3f outside [0,1]", probability)
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	return &Controller{
		frames:      frames,
		probability: probability,
		rng:         rng,
		logger:      logger,
		state:       fsm.StateIdle,
	}, nil
}

// State returns the current presentation state.
func (c *Controller) State() fsm.State {
	return c.state
}

// Start enters Speaking and rewinds the frame cursor.
func (c *Controller) Start() error {
	if err := c.fire(fsm.EventStart); err != nil {
		return fmt.Errorf("%w: %v", ErrAlreadySpeaking, err)
	}
	c.cursor = 0
	return nil
}

// Tick advances the mouth animation by one frame. It reports whether the
// frame changed.
func (c *Controller) Tick() bool {
	if err := c.fire(fsm.EventTick); err != nil {
		return false
	}
	c.cursor = (c.cursor + 1) % len(c.frames.Speaking)
	return true
}

// Finish leaves Speaking. With the configured probability, and only when an
// end frame exists, it holds the end pose instead of closing immediately.
func (c *Controller) Finish() Outcome {
	if c.state != fsm.StateSpeaking {
		c.debug("finish ignored", fsm.EventFinish)
		return OutcomeIgnored
	}

	if c.frames.End != "" && c.rng.Float64() < c.probability {
		_ = c.fire(fsm.EventFlourish)
		return OutcomeFlourish
	}
	_ = c.fire(fsm.EventFinish)
	return OutcomeClosed
}

// Settle ends the flourish hold and returns to Idle.
func (c *Controller) Settle() bool {
	return c.fire(fsm.EventSettle) == nil
}

// Current derives the frame to render from state alone.
func (c *Controller) Current() Frame {
	switch c.state {
	case fsm.StateSpeaking:
		path := c.frames.Speaking[c.cursor]
		return Frame{Name: frameName(path), Path: path, Visible: true, State: c.state, Cursor: c.cursor}
	case fsm.StateEndFlourish:
		return Frame{Name: frameName(c.frames.End), Path: c.frames.End, Visible: true, State: c.state, Cursor: c.cursor}
	default:
		return Frame{Name: frameName(c.frames.Closed), Path: c.frames.Closed, Visible: false, State: c.state, Cursor: c.cursor}
	}
}

func (c *Controller) fire(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.debug(err.Error(), event)
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) debug(message string, event fsm.Event) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("presentation: "+message, "state", c.state, "event", event)
}

// frameName turns "assets/MRT_mouth_open.png" into "MRT_mouth_open".
func frameName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
