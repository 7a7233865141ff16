package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
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

// Serve accepts unix-socket clients until context cancellation or listener
// close. The protocol is one command per connection: a newline-terminated
// JSON request answered with a single JSON response. Malformed requests get
// an error response and a log line; they never take the server down.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger *slog.Logger) error {
	var clients sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				clients.Wait()
				return nil
			}
			logAccept(logger, err)
			return fmt.Errorf("accept control connection: %w", err)
		}

		clients.Add(1)
		go func(c net.Conn) {
			defer clients.Done()
			defer c.Close()
			serveConn(ctx, c, handler, logger)
		}(conn)
	}
}

// serveConn runs the single request/response exchange for one client.
func serveConn(ctx context.Context, conn net.Conn, handler Handler, logger *slog.Logger) {
	req, err := readRequest(conn)
	if err != nil {
		if logger != nil {
			logger.Warn("rejected control request", "error", err.Error())
		}
		writeResponse(conn, Response{OK: false, Error: err.Error()}, logger)
		return
	}

	writeResponse(conn, handler.Handle(ctx, req), logger)
}

// readRequest decodes the newline-terminated JSON command from a client.
func readRequest(conn net.Conn) (Request, error) {
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func writeResponse(conn net.Conn, resp Response, logger *slog.Logger) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil && logger != nil {
		logger.Warn("write control response failed", "error", err.Error())
	}
}

func logAccept(logger *slog.Logger, err error) {
	if logger != nil {
		logger.Error("control socket accept failed", "error", err.Error())
	}
}
