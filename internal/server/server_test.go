package server

import (
	"io"
	"net"
	"strings"
	"testing"

	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/response"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, h Handler, options ...Option) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := ServeListener(ln, h, zerolog.Nop(), options...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func roundTrip(t *testing.T, s *Server, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestServeHandler(t *testing.T) {
	s := startServer(t, func(w *response.Writer, req *request.Request) error {
		body := req.RequestLine.Method + " " + req.Path() + " " + string(req.Body)
		if err := w.WriteStatusLine(response.StatusOK); err != nil {
			return err
		}
		if err := w.WriteHeaders(response.GetDefaultHeaders(len(body))); err != nil {
			return err
		}
		_, err := w.WriteText(body)
		return err
	})

	out := roundTrip(t, s, "POST /words?x=1 HTTP/1.1\r\nHost: localhost\r\nContent-Length: 4\r\n\r\nping")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"), out)
	assert.Contains(t, out, "Content-Length: 16\r\n")
	assert.Contains(t, out, "Connection: close\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nPOST /words ping"), out)

	require.NoError(t, s.Close())
	served, failed := s.Stats()
	assert.Equal(t, int64(1), served)
	assert.Zero(t, failed)
}

func TestServeBadRequest(t *testing.T) {
	called := false
	s := startServer(t, func(*response.Writer, *request.Request) error {
		called = true
		return nil
	})

	out := roundTrip(t, s, "BROKEN\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n"), out)
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nBad Request"), out)
	assert.False(t, called)
}

func TestServeOversizedRequest(t *testing.T) {
	calls := 0
	s := startServer(t, func(w *response.Writer, _ *request.Request) error {
		calls++
		if err := w.WriteStatusLine(response.StatusOK); err != nil {
			return err
		}
		return w.WriteHeaders(response.GetDefaultHeaders(0))
	}, WithLimits(request.Limits{MaxHeaderBytes: 128, MaxBodyBytes: 16}))

	// a Content-Length far past the limit is refused before any allocation
	out := roundTrip(t, s, "POST /words HTTP/1.1\r\nContent-Length: 9000000000000000\r\n\r\nfoo")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n"), out)
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nBad Request"), out)

	out = roundTrip(t, s, "POST /words HTTP/1.1\r\nContent-Length: 17\r\n\r\n0123456789abcdefg")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n"), out)

	// a header section that never ends is cut off at the limit
	out = roundTrip(t, s, "GET /hello HTTP/1.1\r\nX-Filler: "+strings.Repeat("a", 512))
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n"), out)

	// the server keeps serving
	out = roundTrip(t, s, "POST /words HTTP/1.1\r\nContent-Length: 16\r\n\r\n0123456789abcdef")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"), out)

	require.NoError(t, s.Close())
	served, failed := s.Stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), served)
	assert.Equal(t, int64(3), failed)
}

func TestServeHandlerError(t *testing.T) {
	s := startServer(t, func(*response.Writer, *request.Request) error {
		return errors.New("boom")
	})

	out := roundTrip(t, s, "GET /echo-repeat HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n"), out)
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nInternal Server Error"), out)

	require.NoError(t, s.Close())
	_, failed := s.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestServeHandlerPanic(t *testing.T) {
	s := startServer(t, func(*response.Writer, *request.Request) error {
		panic("kaboom")
	})

	out := roundTrip(t, s, "GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n"), out)

	// the server keeps serving after a panic
	out = roundTrip(t, s, "GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n"), out)
}

func TestServeErrorAfterStatus(t *testing.T) {
	s := startServer(t, func(w *response.Writer, _ *request.Request) error {
		if err := w.WriteStatusLine(response.StatusOK); err != nil {
			return err
		}
		return errors.New("late failure")
	})

	out := roundTrip(t, s, "GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\n", out)
}

func TestCloseIdempotent(t *testing.T) {
	s := startServer(t, func(*response.Writer, *request.Request) error { return nil })
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := net.Dial("tcp", s.Addr().String())
	require.Error(t, err)
}
