// Package coordinator ties the trigger schedule, speech engine, and avatar
// presentation together on a single control goroutine.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/talker/internal/fsm"
	"github.com/rbright/talker/internal/ipc"
	"github.com/rbright/talker/internal/phrases"
	"github.com/rbright/talker/internal/presentation"
	"github.com/rbright/talker/internal/schedule"
	"github.com/rbright/talker/internal/speech"
)

// ErrStopped is returned by Handle once Run has returned.
var ErrStopped = errors.New("coordinator stopped")

// Speaker is the blocking speech surface the worker goroutine calls.
type Speaker interface {
	Speak(ctx context.Context, phrase string) speech.Report
	Description() string
}

// Renderer receives every frame change. Render must not block.
type Renderer interface {
	Render(presentation.Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(presentation.Frame)

func (f RendererFunc) Render(frame presentation.Frame) { f(frame) }

// Deps wires a Controller.
type Deps struct {
	Scheduler    *schedule.Scheduler
	Presentation *presentation.Controller
	Speaker      Speaker
	Renderer     Renderer
	Catalog      phrases.Catalog
	Rand         phrases.Rand
	Logger       *slog.Logger

	TickInterval  time.Duration
	FrameInterval time.Duration
	FlourishHold  time.Duration

	// Now and NewID default to time.Now and xid.
	Now   func() time.Time
	NewID func() string
}

type completion struct {
	id     string
	phrase string
	report speech.Report
}

type call struct {
	req   ipc.Request
	reply chan ipc.Response
}

// Controller owns scheduling and presentation state. Everything except
// Handle runs on the goroutine that called Run.
type Controller struct {
	scheduler    *schedule.Scheduler
	presentation *presentation.Controller
	speaker      Speaker
	renderer     Renderer
	catalog      phrases.Catalog
	rng          phrases.Rand
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string

	tickInterval  time.Duration
	frameInterval time.Duration
	flourishHold  time.Duration

	calls   chan call
	done    chan completion
	stopped chan struct{}

	workerCtx   context.Context
	speaking    bool
	utterance   string
	frameTicker *time.Ticker
	frameC      <-chan time.Time
	holdTimer   *time.Timer
	holdC       <-chan time.Time
}

// New validates deps and builds a Controller.
func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Scheduler == nil:
		return nil, errors.New("scheduler is required")
	case deps.Presentation == nil:
		return nil, errors.New("presentation controller is required")
	case deps.Speaker == nil:
		return nil, errors.New("speaker is required")
	case deps.Catalog.Len() == 0:
		return nil, errors.New("phrase catalog is empty")
	case deps.Rand == nil:
		return nil, errors.New("random source is required")
	case deps.TickInterval <= 0 || deps.FrameInterval <= 0:
		return nil, errors.New("tick and frame intervals must be > 0")
	case deps.FlourishHold < 0:
		return nil, errors.New("flourish hold must be >= 0")
	}

	c := &Controller{
		scheduler:     deps.Scheduler,
		presentation:  deps.Presentation,
		speaker:       deps.Speaker,
		renderer:      deps.Renderer,
		catalog:       deps.Catalog,
		rng:           deps.Rand,
		logger:        deps.Logger,
		now:           deps.Now,
		newID:         deps.NewID,
		tickInterval:  deps.TickInterval,
		frameInterval: deps.FrameInterval,
		flourishHold:  deps.FlourishHold,
		calls:         make(chan call),
		done:          make(chan completion, 1),
		stopped:       make(chan struct{}),
		workerCtx:     context.Background(),
	}
	if c.renderer == nil {
		c.renderer = RendererFunc(func(presentation.Frame) {})
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = newUtteranceID
	}
	return c, nil
}

// Run drives the control loop until ctx is done. An utterance in flight at
// shutdown is not interrupted.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)
	defer c.stopTimers()

	c.workerCtx = context.WithoutCancel(ctx)
	c.render()
	c.logInfo("coordinator started", "mode", string(c.scheduler.Mode()), "next_fire", c.scheduler.Next().Format(time.RFC3339), "backend", c.speaker.Description())

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logInfo("coordinator stopped", "speaking", c.speaking)
			return nil
		case <-ticker.C:
			c.onTick(c.now())
		case <-c.frameC:
			c.onFrame()
		case <-c.holdC:
			c.onSettle()
		case done := <-c.done:
			c.onSpeechDone(done)
		case in := <-c.calls:
			in.reply <- c.handle(in.req)
		}
	}
}

// Handle serves one IPC request on the control goroutine.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	in := call{req: req, reply: make(chan ipc.Response, 1)}
	select {
	case c.calls <- in:
	case <-c.stopped:
		return ipc.Response{OK: false, Error: ErrStopped.Error()}
	case <-ctx.Done():
		return ipc.Response{OK: false, Error: ctx.Err().Error()}
	}
	return <-in.reply
}

func (c *Controller) handle(req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.status("status")
	case ipc.CommandTrigger:
		if !c.TriggerNow() {
			return c.status("busy")
		}
		return c.status("speaking")
	case ipc.CommandMode:
		mode, err := schedule.ParseMode(req.Arg)
		if err != nil {
			resp := c.status("")
			resp.OK = false
			resp.Error = err.Error()
			return resp
		}
		if err := c.SetMode(mode); err != nil {
			resp := c.status("")
			resp.OK = false
			resp.Error = err.Error()
			return resp
		}
		return c.status("mode set")
	case ipc.CommandDescribe:
		return c.status(c.Description())
	default:
		resp := c.status("")
		resp.OK = false
		resp.Error = fmt.Sprintf("unknown command: %s", req.Command)
		return resp
	}
}

func (c *Controller) status(message string) ipc.Response {
	return ipc.Response{
		OK:       true,
		State:    string(c.presentation.State()),
		Mode:     string(c.scheduler.Mode()),
		NextFire: c.scheduler.Next().Format(time.RFC3339),
		Backend:  c.speaker.Description(),
		Message:  message,
	}
}

// TriggerNow dispatches an utterance immediately unless one is in flight.
// The schedule is left untouched.
func (c *Controller) TriggerNow() bool {
	return c.dispatch("manual")
}

// SetMode switches cadence and re-arms the schedule from now.
func (c *Controller) SetMode(mode schedule.Mode) error {
	if err := c.scheduler.Reset(mode, c.now()); err != nil {
		return err
	}
	c.logInfo("schedule mode changed", "mode", string(mode), "next_fire", c.scheduler.Next().Format(time.RFC3339))
	return nil
}

// Description names the speech backend the next utterance will try first.
func (c *Controller) Description() string {
	return c.speaker.Description()
}

// busy covers the speech itself and the end-pose hold that follows it.
func (c *Controller) busy() bool {
	return c.speaking || c.presentation.State() != fsm.StateIdle
}

func (c *Controller) onTick(now time.Time) {
	if !c.scheduler.IsDue(now) {
		return
	}
	if c.busy() {
		c.logDebug("scheduled trigger deferred", "next_fire", c.scheduler.Next().Format(time.RFC3339))
		return
	}
	if !c.dispatch("schedule") {
		return
	}
	if err := c.scheduler.Reset(c.scheduler.Mode(), c.now()); err != nil {
		c.logError("schedule reset failed", err)
	}
}

func (c *Controller) dispatch(source string) bool {
	if c.busy() {
		return false
	}
	if err := c.presentation.Start(); err != nil {
		c.logDebug("dispatch rejected", "error", err.Error())
		return false
	}

	phrase := c.catalog.Pick(c.rng)
	id := c.newID()
	c.speaking = true
	c.utterance = id
	c.render()
	c.startAnimation()

	c.logInfo("utterance started", "utterance_id", id, "source", source, "phrase", phrase)
	go c.speak(c.workerCtx, id, phrase)
	return true
}

// speak runs on the worker goroutine and only reports back.
func (c *Controller) speak(ctx context.Context, id, phrase string) {
	var report speech.Report
	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("speech panicked: %v", r)
		}
		c.done <- completion{id: id, phrase: phrase, report: report}
	}()
	report = c.speaker.Speak(speech.WithUtteranceID(ctx, id), phrase)
}

func (c *Controller) onFrame() {
	if c.presentation.Tick() {
		c.render()
	}
}

func (c *Controller) onSpeechDone(done completion) {
	args := []any{
		"utterance_id", done.id,
		"backend", done.report.Backend,
		"fell_back", done.report.FellBack,
		"duration_ms", done.report.Duration.Milliseconds(),
	}
	if !done.report.Audible() {
		if done.report.Err != nil {
			args = append(args, "error", done.report.Err.Error())
		}
		c.logWarn("utterance finished without audio", args...)
	} else {
		c.logInfo("utterance finished", args...)
	}

	c.speaking = false
	c.utterance = ""
	c.stopAnimation()

	outcome := c.presentation.Finish()
	c.render()
	if outcome != presentation.OutcomeFlourish {
		return
	}
	if c.flourishHold == 0 {
		c.onSettle()
		return
	}
	c.holdTimer = time.NewTimer(c.flourishHold)
	c.holdC = c.holdTimer.C
}

func (c *Controller) onSettle() {
	c.holdTimer = nil
	c.holdC = nil
	if c.presentation.Settle() {
		c.render()
	}
}

func (c *Controller) startAnimation() {
	c.frameTicker = time.NewTicker(c.frameInterval)
	c.frameC = c.frameTicker.C
}

func (c *Controller) stopAnimation() {
	if c.frameTicker != nil {
		c.frameTicker.Stop()
	}
	c.frameTicker = nil
	c.frameC = nil
}

func (c *Controller) stopTimers() {
	c.stopAnimation()
	if c.holdTimer != nil {
		c.holdTimer.Stop()
	}
	c.holdTimer = nil
	c.holdC = nil
}

func (c *Controller) render() {
	c.renderer.Render(c.presentation.Current())
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger != nil {
		c.logger.Info(message, args...)
	}
}

func (c *Controller) logWarn(message string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(message, args...)
	}
}

func (c *Controller) logDebug(message string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(message, args...)
	}
}

func (c *Controller) logError(message string, err error) {
	if c.logger != nil {
		c.logger.Error(message, "error", err.Error())
	}
}
