package response

import (
	"io"

	"github.com/nhdewitt/httpdemo/internal/headers"
	"github.com/pkg/errors"
)

type writerState int

const (
	StateWritingStatusLine writerState = iota
	StateWritingHeaders
	StateWritingBody
	StateDone
)

// ErrOutOfOrder is returned when the status line, headers and body are not
// written exactly once each and in that order.
var ErrOutOfOrder = errors.New("writer state out-of-order")

type Writer struct {
	writer io.Writer
	state  writerState
	status StatusCode
	bytes  int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: w,
		state:  StateWritingStatusLine,
	}
}

func (w *Writer) WriteStatusLine(statusCode StatusCode) error {
	if w.state != StateWritingStatusLine {
		return ErrOutOfOrder
	}

	// Advance even on a failed write; the line may be partially on the wire.
	w.state = StateWritingHeaders
	w.status = statusCode
	return WriteStatusLine(w.writer, statusCode)
}

func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != StateWritingHeaders {
		return ErrOutOfOrder
	}

	w.state = StateWritingBody
	return WriteHeaders(w.writer, h)
}

// WriteBody emits p as an opaque byte payload. Only one body write is
// allowed per response.
func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != StateWritingBody {
		return 0, ErrOutOfOrder
	}

	w.state = StateDone
	n, err := w.writer.Write(p)
	w.bytes += n
	return n, errors.Wrap(err, "error writing body")
}

// WriteText emits s as a UTF-8 text payload.
func (w *Writer) WriteText(s string) (int, error) {
	if w.state != StateWritingBody {
		return 0, ErrOutOfOrder
	}

	w.state = StateDone
	n, err := io.WriteString(w.writer, s)
	w.bytes += n
	return n, errors.Wrap(err, "error writing body")
}

// Started reports whether anything has been put on the wire yet.
func (w *Writer) Started() bool {
	return w.state != StateWritingStatusLine
}

// Status is the status code written, or 0 before WriteStatusLine.
func (w *Writer) Status() StatusCode {
	return w.status
}

// BytesWritten counts body bytes only.
func (w *Writer) BytesWritten() int {
	return w.bytes
}
