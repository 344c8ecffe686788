package server

import (
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/response"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	drainTimeout  = 500 * time.Millisecond
	maxDrainBytes = 256 << 10
)

type Server struct {
	listener    net.Listener
	isListening atomic.Bool
	handler     Handler
	log         zerolog.Logger
	limits      request.Limits
	conns       sync.WaitGroup
	done        chan struct{}

	served atomic.Int64
	failed atomic.Int64
}

type Option func(*Server)

// WithLimits caps the header section and body size of each request.
// Requests over either limit are answered with 400.
func WithLimits(limits request.Limits) Option {
	return func(s *Server) {
		s.limits = limits
	}
}

// Serve listens on port (0 picks a free one) and handles every connection
// on its own goroutine until Close is called.
func Serve(port int, handler Handler, log zerolog.Logger, options ...Option) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrapf(err, "listening on port %d", port)
	}
	return ServeListener(listener, handler, log, options...), nil
}

func ServeListener(listener net.Listener, handler Handler, log zerolog.Logger, options ...Option) *Server {
	s := &Server{
		listener: listener,
		handler:  handler,
		log:      log,
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.isListening.Store(true)
	go s.listen()

	return s
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting connections and waits for in-flight requests.
func (s *Server) Close() error {
	if !s.isListening.CompareAndSwap(true, false) {
		return nil
	}

	err := s.listener.Close()
	<-s.done
	s.conns.Wait()
	return err
}

// Stats returns the number of requests answered and the number that failed.
func (s *Server) Stats() (served, failed int64) {
	return s.served.Load(), s.failed.Load()
}

func (s *Server) listen() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isListening.Load() {
				return
			}
			s.log.Error().Err(err).Msg("error accepting connection")
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	log := s.log.With().Str("request_id", uuid.NewString()).Str("remote", conn.RemoteAddr().String()).Logger()
	resp := response.NewWriter(conn)

	req, err := request.RequestFromReaderLimits(conn, s.limits)
	if err != nil {
		log.Warn().Err(err).Msg("bad request")
		s.failed.Inc()
		writeError(resp, response.StatusBadRequest)
		drain(conn)
		return
	}

	log = log.With().Str("method", req.RequestLine.Method).Str("target", req.RequestLine.RequestTarget).Logger()
	if err := s.run(resp, req); err != nil {
		s.failed.Inc()
		if resp.Started() {
			log.Error().Err(err).Int("status", int(resp.Status())).Msg("handler failed after writing response")
			return
		}
		log.Error().Err(err).Msg("handler failed")
		writeError(resp, response.StatusInternalServerError)
		return
	}

	s.served.Inc()
	log.Info().
		Int("status", int(resp.Status())).
		Int("bytes", resp.BytesWritten()).
		Dur("duration", time.Since(start)).
		Msg("request served")
}

// run invokes the handler, turning a panic into an error.
func (s *Server) run(w *response.Writer, req *request.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("stack", string(debug.Stack())).Msg("panic recovered")
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return s.handler(w, req)
}

func writeError(w *response.Writer, code response.StatusCode) {
	body := code.Reason()
	if err := w.WriteStatusLine(code); err != nil {
		return
	}
	if err := w.WriteHeaders(response.GetDefaultHeaders(len(body))); err != nil {
		return
	}
	_, _ = w.WriteText(body)
}

// drain discards input the parser never consumed so that closing the
// connection does not reset it before the client reads the error response.
func drain(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, maxDrainBytes))
}
