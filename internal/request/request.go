package request

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/nhdewitt/httpdemo/internal/headers"
	"github.com/pkg/errors"
)

type requestState int

const (
	stateRequestLine requestState = iota
	stateHeaders
	stateBody
	stateDone
)

const (
	bufferSize = 8
	crlf       = "\r\n"

	DefaultMaxHeaderBytes = 64 << 10
	DefaultMaxBodyBytes   = 10 << 20
)

var (
	ErrHeaderTooLarge = errors.New("request header section too large")
	ErrBodyTooLarge   = errors.New("request body too large")
)

// Limits bounds how much of a request is buffered. Zero fields take the
// defaults.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int
}

func (l Limits) withDefaults() Limits {
	if l.MaxHeaderBytes <= 0 {
		l.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return l
}

// Request is the read-only view a handler gets of one inbound request.
type Request struct {
	RequestLine RequestLine
	Headers     *headers.Headers
	Body        []byte

	state         requestState
	contentLength int
	headerBytes   int
	limits        Limits
}

type RequestLine struct {
	HttpVersion   string
	RequestTarget string
	Method        string
}

// Path is the request target up to the first '?'.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.RequestLine.RequestTarget, "?")
	return path
}

// RawQuery is everything after the first '?', or "" when there is none.
func (r *Request) RawQuery() string {
	_, query, _ := strings.Cut(r.RequestLine.RequestTarget, "?")
	return query
}

// HasQuery reports whether the request target carried a '?' at all.
func (r *Request) HasQuery() bool {
	return strings.Contains(r.RequestLine.RequestTarget, "?")
}

func RequestFromReader(reader io.Reader) (*Request, error) {
	return RequestFromReaderLimits(reader, Limits{})
}

// RequestFromReaderLimits parses one request, failing with ErrHeaderTooLarge
// or ErrBodyTooLarge instead of buffering past limits.
func RequestFromReaderLimits(reader io.Reader, limits Limits) (*Request, error) {
	buf := make([]byte, bufferSize)
	readToIndex := 0

	r := Request{
		Headers: headers.NewHeaders(),
		state:   stateRequestLine,
		limits:  limits.withDefaults(),
	}

	for r.state != stateDone {
		if r.state < stateBody && r.headerBytes+readToIndex > r.limits.MaxHeaderBytes {
			return nil, errors.Wrapf(ErrHeaderTooLarge, "limit %d bytes", r.limits.MaxHeaderBytes)
		}
		if readToIndex == len(buf) {
			tmpBuf := make([]byte, len(buf)*2)
			copy(tmpBuf, buf[:readToIndex])
			buf = tmpBuf
		}

		n, err := reader.Read(buf[readToIndex:])
		if n > 0 {
			readToIndex += n

			bytesParsed, perr := r.parse(buf[:readToIndex])
			if perr != nil {
				return nil, perr
			}

			copy(buf, buf[bytesParsed:readToIndex])
			readToIndex -= bytesParsed
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if r.state != stateDone {
					return nil, errors.New("error parsing data: early EOF")
				}
				break
			}
			return nil, err
		}
	}

	return &r, nil
}

// parse keeps feeding data to the current state until it can make no more
// progress, so one read may complete several states.
func (r *Request) parse(data []byte) (int, error) {
	total := 0
	for r.state != stateDone {
		n, err := r.parseSingle(data[total:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

func (r *Request) parseSingle(data []byte) (int, error) {
	switch r.state {
	case stateRequestLine:
		parsed, parsedRequest, err := parseRequestLine(data)
		if err != nil {
			return 0, errors.Wrap(err, "error parsing data")
		}
		if parsed == 0 {
			return 0, nil
		}

		r.RequestLine = parsedRequest
		r.state = stateHeaders
		r.headerBytes += parsed

		return parsed, nil
	case stateHeaders:
		n, done, err := r.Headers.Parse(data)
		if err != nil {
			return 0, errors.Wrap(err, "error parsing headers")
		}
		r.headerBytes += n
		if r.headerBytes > r.limits.MaxHeaderBytes {
			return 0, errors.Wrapf(ErrHeaderTooLarge, "limit %d bytes", r.limits.MaxHeaderBytes)
		}
		if done {
			if err := r.beginBody(); err != nil {
				return 0, err
			}
		}
		return n, nil
	case stateBody:
		remaining := r.contentLength - len(r.Body)
		if len(data) == 0 {
			return 0, nil
		}
		if len(data) > remaining {
			return 0, errors.Errorf("body longer than declared Content-Length %d", r.contentLength)
		}
		r.Body = append(r.Body, data...)
		if len(r.Body) == r.contentLength {
			r.state = stateDone
		}
		return len(data), nil
	case stateDone:
		return 0, errors.New("error: trying to read data in a done state")
	default:
		return 0, errors.New("error: unknown state")
	}
}

func (r *Request) beginBody() error {
	cl, ok := r.Headers.Lookup("Content-Length")
	if !ok {
		r.Body = []byte{}
		r.state = stateDone
		return nil
	}

	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return errors.Errorf("invalid Content-Length: %q", cl)
	}
	if n > r.limits.MaxBodyBytes {
		return errors.Wrapf(ErrBodyTooLarge, "Content-Length %d exceeds %d", n, r.limits.MaxBodyBytes)
	}
	r.contentLength = n
	r.Body = []byte{}
	if n == 0 {
		r.state = stateDone
		return nil
	}
	r.state = stateBody
	return nil
}

func parseRequestLine(req []byte) (int, RequestLine, error) {
	idx := bytes.Index(req, []byte(crlf))
	if idx == -1 {
		return 0, RequestLine{}, nil
	}
	line := string(req[:idx])
	consumed := idx + len(crlf)

	rl, err := requestLineFromString(line)
	if err != nil {
		return 0, RequestLine{}, err
	}

	return consumed, *rl, nil
}

func requestLineFromString(s string) (*RequestLine, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return nil, errors.Errorf("invalid request line: %s", s)
	}

	method := parts[0]
	for _, c := range method {
		if c < 'A' || c > 'Z' {
			return nil, errors.Errorf("invalid method: %s", method)
		}
	}

	target := parts[1]
	if !strings.HasPrefix(target, "/") {
		return nil, errors.Errorf("invalid request target: %s", target)
	}

	protocol, version, ok := strings.Cut(parts[2], "/")
	if !ok || protocol != "HTTP" {
		return nil, errors.Errorf("invalid HTTP version: %s", parts[2])
	}
	if version != "1.1" {
		return nil, errors.Errorf("invalid HTTP version: %s", parts[2])
	}

	return &RequestLine{
		Method:        method,
		RequestTarget: target,
		HttpVersion:   version,
	}, nil
}
