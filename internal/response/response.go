package response

import (
	"io"
	"strconv"
	"time"

	"github.com/nhdewitt/httpdemo/internal/headers"
	"github.com/pkg/errors"
)

func WriteStatusLine(w io.Writer, statusCode StatusCode) error {
	line := "HTTP/1.1 " + strconv.Itoa(int(statusCode)) + " " + statusCode.Reason() + "\r\n"
	_, err := io.WriteString(w, line)
	return errors.Wrap(err, "error writing status line")
}

// GetDefaultHeaders returns the headers every response carries. Callers
// replace Content-Type or delete it when the route declares none.
func GetDefaultHeaders(contentLen int) *headers.Headers {
	h := headers.NewHeaders()
	h.Replace("Content-Length", strconv.Itoa(contentLen))
	h.Replace("Connection", "close")
	h.Replace("Content-Type", "text/plain")
	h.Replace("Date", time.Now().UTC().Format(time.RFC1123))

	return h
}

func WriteHeaders(w io.Writer, h *headers.Headers) error {
	var err error
	h.Each(func(name, value string) {
		if err != nil {
			return
		}
		_, err = io.WriteString(w, name+": "+value+"\r\n")
	})
	if err != nil {
		return errors.Wrap(err, "error writing header")
	}
	_, err = io.WriteString(w, "\r\n")
	return errors.Wrap(err, "error writing header")
}
