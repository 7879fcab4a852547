// Package app dispatches talker commands: the daemon itself and the thin
// clients that talk to it over IPC.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/talker/internal/audio"
	"github.com/rbright/talker/internal/cli"
	"github.com/rbright/talker/internal/config"
	"github.com/rbright/talker/internal/coordinator"
	"github.com/rbright/talker/internal/doctor"
	"github.com/rbright/talker/internal/ipc"
	"github.com/rbright/talker/internal/logging"
	"github.com/rbright/talker/internal/phrases"
	"github.com/rbright/talker/internal/presentation"
	"github.com/rbright/talker/internal/render"
	"github.com/rbright/talker/internal/schedule"
	"github.com/rbright/talker/internal/speech"
	"github.com/rbright/talker/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("talker"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("talker"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	var mode schedule.Mode
	if parsed.Command == cli.CommandMode {
		mode, err = schedule.ParseMode(parsed.Arg)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		r.warn(logger, w)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	case cli.CommandSpeak:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandTrigger}, func(resp ipc.Response) string {
			return resp.Message
		})
	case cli.CommandMode:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandMode, Arg: string(mode)}, func(resp ipc.Response) string {
			return fmt.Sprintf("%s; next %s", resp.Mode, resp.NextFire)
		})
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandVoice:
		return r.commandVoice(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) warn(logger *slog.Logger, w config.Warning) {
	msg := w.Message
	if w.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
	logger.Warn("config warning", "line", w.Line, "message", w.Message)
}

// daemon is everything commandRun starts and stops.
type daemon struct {
	controller *coordinator.Controller
	dispatcher *render.Dispatcher
}

// buildEngine assembles the preferred and fallback backends from config.
func buildEngine(cfg config.SpeechConfig, logger *slog.Logger) (*speech.Engine, error) {
	backendCfg := speech.NewBackendConfig(cfg)
	player, err := speech.NewPlayer(cfg.Player)
	if err != nil {
		return nil, err
	}
	preferred := speech.NewPiperBackend(backendCfg, player, logger)
	fallback := speech.NewCommandBackend(backendCfg)
	return speech.NewEngine(preferred, fallback, logger), nil
}

func (r Runner) buildDaemon(cfg config.Config, logger *slog.Logger) (daemon, error) {
	frames, warnings, err := config.ResolveFrames(cfg.Presentation)
	for _, w := range warnings {
		r.warn(logger, w)
	}
	if err != nil {
		return daemon{}, err
	}

	catalog, err := phrases.Load(cfg.Phrases.File)
	if err != nil {
		return daemon{}, err
	}

	engine, err := buildEngine(cfg.Speech, logger)
	if err != nil {
		return daemon{}, err
	}

	scheduler, err := schedule.New(cfg.Schedule.Mode, time.Now())
	if err != nil {
		return daemon{}, err
	}

	// Both draws happen on the control goroutine, so one source is enough.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pres, err := presentation.NewController(presentation.Frames{
		Closed:   frames.Closed,
		Speaking: frames.Speaking,
		End:      frames.End,
	}, cfg.Presentation.FlourishProbability, rng, logger)
	if err != nil {
		return daemon{}, err
	}

	backend, err := render.New(cfg.Render, logger)
	if err != nil {
		return daemon{}, err
	}
	dispatcher := render.NewDispatcher(backend, logger)

	controller, err := coordinator.New(coordinator.Deps{
		Scheduler:     scheduler,
		Presentation:  pres,
		Speaker:       engine,
		Renderer:      dispatcher,
		Catalog:       catalog,
		Rand:          rng,
		Logger:        logger,
		TickInterval:  millis(cfg.Schedule.TickMS),
		FrameInterval: millis(cfg.Presentation.FrameIntervalMS),
		FlourishHold:  millis(cfg.Presentation.FlourishHoldMS),
	})
	if err != nil {
		return daemon{}, err
	}
	return daemon{controller: controller, dispatcher: dispatcher}, nil
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath := ipc.RuntimeSocketPath()

	d, err := r.buildDaemon(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		d.dispatcher.Run(serverCtx)
	}()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, d.controller)
	}()

	fmt.Fprintf(r.Stdout, "talker running (%s)\n", d.controller.Description())
	runErr := d.controller.Run(ctx)

	serverCancel()
	serverErr := <-serverErrCh
	<-renderDone

	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	if serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	resp, handled, err := tryForward(ctx, ipc.RuntimeSocketPath(), ipc.Request{Command: ipc.CommandStatus})
	if !handled {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintf(r.Stdout, "%s mode=%s next=%s\n", resp.State, resp.Mode, resp.NextFire)
	return 0
}

// commandVoice asks the daemon, or derives the answer from config alone
// when none is running.
func (r Runner) commandVoice(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	resp, handled, err := tryForward(ctx, ipc.RuntimeSocketPath(), ipc.Request{Command: ipc.CommandDescribe})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, resp.Message)
		return 0
	}

	engine, err := buildEngine(cfg.Speech, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, engine.Description())
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no output sinks found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request, format func(ipc.Response) string) int {
	resp, handled, err := tryForward(ctx, ipc.RuntimeSocketPath(), req)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: talker is not running (start it with `talker run`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if line := format(resp); line != "" {
		fmt.Fprintln(r.Stdout, line)
	}
	return 0
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
