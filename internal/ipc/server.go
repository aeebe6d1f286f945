package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// Handler processes one interview command on behalf of the session owner.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts clients on the owner socket until context cancellation or
// listener close. Connections are handled concurrently; Serve returns only
// after every in-flight connection has finished.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var inflight sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				inflight.Wait()
				return nil
			}
			return fmt.Errorf("accept connection: %w", err)
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			defer conn.Close()
			serveConn(ctx, conn, handler)
		}()
	}
}

// serveConn answers requests line by line until the client hangs up. The CLI
// sends one command per connection, but nothing in the framing requires that.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	reader := bufio.NewReader(conn)
	for {
		var req Request
		if err := readMessage(reader, &req); err != nil {
			if !errors.Is(err, io.EOF) {
				_ = writeMessage(conn, Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
			}
			return
		}

		resp := dispatch(ctx, handler, req)
		if err := writeMessage(conn, resp); err != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, handler Handler, req Request) Response {
	if !req.Command.Known() {
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
	return handler.Handle(ctx, req)
}
