package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rbright/talker/internal/config"
	"github.com/rbright/talker/internal/fsm"
	"github.com/rbright/talker/internal/presentation"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	mu     sync.Mutex
	frames []presentation.Frame
	gate   chan struct{}
	err    error
}

func (b *recordingBackend) Draw(_ context.Context, frame presentation.Frame) error {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	return b.err
}

func (b *recordingBackend) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.frames))
	for _, f := range b.frames {
		out = append(out, f.Name)
	}
	return out
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default().Render

	backend, err := New(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &LogBackend{}, backend)

	cfg.Backend = config.RenderDesktop
	backend, err = New(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &DesktopBackend{}, backend)

	cfg.Backend = config.RenderCommand
	backend, err = New(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &CommandBackend{}, backend)

	cfg.Backend = config.RenderNone
	backend, err = New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, backend.Draw(context.Background(), presentation.Frame{}))

	cfg.Backend = "x11"
	_, err = New(cfg, nil)
	require.Error(t, err)
}

func TestDispatcherDeliversFramesInOrder(t *testing.T) {
	backend := &recordingBackend{}
	dispatcher := NewDispatcher(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(done)
	}()

	dispatcher.Render(presentation.Frame{Name: "MRT_mouth_open", Visible: true})
	require.Eventually(t, func() bool { return len(backend.names()) == 1 }, time.Second, 5*time.Millisecond)
	dispatcher.Render(presentation.Frame{Name: "MRT_mouth_closed"})
	require.Eventually(t, func() bool { return len(backend.names()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	require.Equal(t, []string{"MRT_mouth_open", "MRT_mouth_closed"}, backend.names())
}

func TestDispatcherKeepsOnlyLatestPendingFrame(t *testing.T) {
	backend := &recordingBackend{gate: make(chan struct{})}
	dispatcher := NewDispatcher(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Render(presentation.Frame{Name: "a"})
	// Wait until the backend is blocked drawing "a".
	require.Eventually(t, func() bool {
		dispatcher.mu.Lock()
		defer dispatcher.mu.Unlock()
		return dispatcher.pending == nil
	}, time.Second, time.Millisecond)

	dispatcher.Render(presentation.Frame{Name: "b"})
	dispatcher.Render(presentation.Frame{Name: "c"})
	dispatcher.Render(presentation.Frame{Name: "d"})

	backend.gate <- struct{}{}
	backend.gate <- struct{}{}
	require.Eventually(t, func() bool { return len(backend.names()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"a", "d"}, backend.names())
}

func TestDispatcherRenderNeverBlocks(t *testing.T) {
	dispatcher := NewDispatcher(&recordingBackend{}, nil)
	for i := 0; i < 100; i++ {
		dispatcher.Render(presentation.Frame{Cursor: i})
	}
	frame, ok := dispatcher.take()
	require.True(t, ok)
	require.Equal(t, 99, frame.Cursor)
}

func TestDispatcherFlushesPendingFrameOnShutdown(t *testing.T) {
	backend := &recordingBackend{}
	dispatcher := NewDispatcher(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dispatcher.Render(presentation.Frame{Name: "MRT_mouth_closed"})
	<-dispatcher.wake

	dispatcher.Run(ctx)
	require.Equal(t, []string{"MRT_mouth_closed"}, backend.names())
}

func TestDispatcherLogsBackendFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	dispatcher := NewDispatcher(&recordingBackend{err: errors.New("boom")}, logger)

	dispatcher.draw(context.Background(), presentation.Frame{Name: "MRT_mouth_open"})
	require.Contains(t, logs.String(), "render dispatch failed")
	require.Contains(t, logs.String(), "boom")
}

func TestLogBackendWritesFrame(t *testing.T) {
	var logs bytes.Buffer
	backend := &LogBackend{
		logger:   slog.New(slog.NewJSONHandler(&logs, nil)),
		geometry: Geometry{Size: 200, Margin: 20, Corner: "top-right"},
	}

	require.NoError(t, backend.Draw(context.Background(), presentation.Frame{
		Name:    "MRT_mouth_A_face",
		Path:    "/assets/MRT_mouth_A_face.png",
		Visible: true,
		State:   fsm.StateSpeaking,
		Cursor:  1,
	}))
	out := logs.String()
	require.Contains(t, out, `"msg":"frame"`)
	require.Contains(t, out, `"name":"MRT_mouth_A_face"`)
	require.Contains(t, out, `"visible":true`)
	require.Contains(t, out, `"state":"speaking"`)
	require.Contains(t, out, `"cursor":1`)

	require.NoError(t, (&LogBackend{}).Draw(context.Background(), presentation.Frame{}))
}
