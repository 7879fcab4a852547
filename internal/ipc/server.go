package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// maxRequestBytes bounds one request line; trigger and mode arguments are short.
	maxRequestBytes = 4 << 10
	// requestTimeout bounds reading a request and the handler's turn on the control loop.
	requestTimeout = 2 * time.Second
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts unix-socket clients until context cancellation or listener close.
// Each connection carries one newline-terminated request.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))
	enc := json.NewEncoder(conn)

	req, err := readRequest(conn)
	if err != nil {
		_ = enc.Encode(Response{OK: false, Error: err.Error()})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	_ = enc.Encode(handler.Handle(reqCtx, req))
}

func readRequest(r io.Reader) (Request, error) {
	// One extra byte distinguishes an exact-limit line from an oversized one.
	reader := bufio.NewReader(io.LimitReader(r, maxRequestBytes+1))
	line, err := reader.ReadBytes('\n')
	if len(line) > maxRequestBytes {
		return Request{}, fmt.Errorf("request exceeds %d bytes", maxRequestBytes)
	}
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Request{}, errors.New("missing command")
	}
	return req, nil
}
