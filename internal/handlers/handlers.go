// Package handlers implements the demo routes. Each handler writes one
// complete response or returns an error before writing anything.
package handlers

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nhdewitt/httpdemo/internal/assets"
	"github.com/nhdewitt/httpdemo/internal/headers"
	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/response"
	"github.com/nhdewitt/httpdemo/internal/router"
	"github.com/nhdewitt/httpdemo/internal/words"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	contentTypeText       = "text/plain"
	contentTypeTextUTF8   = "text/plain; charset=utf-8"
	contentTypeHTML       = "text/html; charset=utf-8"
	contentTypeXML        = "application/xml; charset=utf-8"
	contentTypeJSON       = "application/json"
	contentTypeJPEG       = "image/jpeg"
	contentTypeOctets     = "application/octet-stream"
	repeatCountHeader     = "X-Repeat-Count"
	wordsLocation         = "/words"
	attachmentDisposition = "attachment; filename=" + assets.DogImage
)

var (
	ErrBadRepeatCount   = errors.New("invalid " + repeatCountHeader + " header")
	ErrMissingQuery     = errors.New("missing query string")
	ErrMalformedSegment = errors.New("malformed query segment")
)

type Handlers struct {
	words  *words.Store
	assets assets.Provider
	log    zerolog.Logger
}

func New(store *words.Store, provider assets.Provider, log zerolog.Logger) *Handlers {
	return &Handlers{
		words:  store,
		assets: provider,
		log:    log,
	}
}

// Register installs every route on rt.
func (h *Handlers) Register(rt *router.Router) {
	rt.Get("/hello", h.Hello)
	rt.Get("/echo", h.Echo)
	rt.Get("/hello-html", h.HelloHTML)
	rt.Get("/hello-xml", h.HelloXML)
	rt.Get("/hello-json", h.HelloJSON)
	rt.Get("/echo-repeat", h.EchoRepeat)
	rt.Get("/dog-image", h.DogImage)
	rt.Get("/dog-image-file", h.DogImageFile)
	rt.Post("/words", h.AddWords)
	rt.Get("/words", h.ListWords)
}

func (h *Handlers) Hello(w *response.Writer, _ *request.Request) error {
	return writeText(w, response.StatusOK, contentTypeTextUTF8, "hello")
}

func (h *Handlers) Echo(w *response.Writer, req *request.Request) error {
	if e := h.log.Debug(); e.Enabled() {
		hdrs := zerolog.Dict()
		req.Headers.Each(func(name, value string) { hdrs.Str(name, value) })
		e.Str("method", req.RequestLine.Method).
			Str("uri", req.Path()).
			Str("query", req.RawQuery()).
			Str("protocol", "HTTP/"+req.RequestLine.HttpVersion).
			Dict("headers", hdrs).
			Str("body", string(req.Body)).
			Msg("echo request")
	}
	return writeText(w, response.StatusOK, contentTypeTextUTF8, string(req.Body))
}

func (h *Handlers) HelloHTML(w *response.Writer, _ *request.Request) error {
	return writeText(w, response.StatusOK, contentTypeHTML, "<h1>Hello</h1>")
}

func (h *Handlers) HelloXML(w *response.Writer, _ *request.Request) error {
	return writeText(w, response.StatusOK, contentTypeXML, "<text>Hello</text>")
}

// HelloJSON answers 404 with a well-formed body on purpose: a not-found
// status may still carry an explanatory payload.
func (h *Handlers) HelloJSON(w *response.Writer, _ *request.Request) error {
	return writeText(w, response.StatusNotFound, contentTypeJSON, `{ "data": "Hello" }`)
}

func (h *Handlers) EchoRepeat(w *response.Writer, req *request.Request) error {
	count := 1
	if v, ok := req.Headers.Lookup(repeatCountHeader); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(ErrBadRepeatCount, "%q", v)
		}
		count = n
	}

	// TODO: a missing query string fails the request outright; decide whether
	// it should answer with an empty body instead.
	if !req.HasQuery() {
		return ErrMissingQuery
	}

	body, err := RepeatQuery(req.RawQuery(), count)
	if err != nil {
		return err
	}
	return writeText(w, response.StatusOK, contentTypeText, body)
}

// RepeatQuery renders each key=value segment of query as "key,value",
// count times in a row, one line each, with trailing whitespace trimmed.
// Trailing empty segments ("a=1&") are ignored; empty ones in between are not.
func RepeatQuery(query string, count int) (string, error) {
	var sb strings.Builder
	for _, segment := range splitDropTrailing(query, "&") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return "", errors.Wrapf(ErrMalformedSegment, "%q has no '='", segment)
		}
		for range max(count, 0) {
			sb.WriteString(key)
			sb.WriteByte(',')
			sb.WriteString(value)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace), nil
}

func (h *Handlers) DogImage(w *response.Writer, _ *request.Request) error {
	img, err := h.assets.Open(assets.DogImage)
	if err != nil {
		return err
	}

	if err := w.WriteStatusLine(response.StatusOK); err != nil {
		return err
	}
	hdrs := response.GetDefaultHeaders(len(img))
	hdrs.Replace("Content-Type", contentTypeJPEG)
	if err := w.WriteHeaders(hdrs); err != nil {
		return err
	}
	_, err = w.WriteBody(img)
	return err
}

func (h *Handlers) DogImageFile(w *response.Writer, _ *request.Request) error {
	img, err := h.assets.Open(assets.DogImage)
	if err != nil {
		return err
	}

	if err := w.WriteStatusLine(response.StatusOK); err != nil {
		return err
	}
	hdrs := response.GetDefaultHeaders(len(img))
	hdrs.Replace("Content-Type", contentTypeOctets)
	hdrs.Replace("Content-Disposition", attachmentDisposition)
	if err := w.WriteHeaders(hdrs); err != nil {
		return err
	}
	_, err = w.WriteBody(img)
	return err
}

func (h *Handlers) AddWords(w *response.Writer, req *request.Request) error {
	added := SplitWords(string(req.Body))
	h.words.Append(added...)
	h.log.Debug().Strs("words", added).Int("total", h.words.Len()).Msg("words added")

	if err := w.WriteStatusLine(response.StatusCreated); err != nil {
		return err
	}
	hdrs := response.GetDefaultHeaders(0)
	hdrs.Del("Content-Type")
	hdrs.Replace("Location", wordsLocation)
	return w.WriteHeaders(hdrs)
}

func (h *Handlers) ListWords(w *response.Writer, _ *request.Request) error {
	body := strings.Join(h.words.Snapshot(), ",")

	if err := w.WriteStatusLine(response.StatusOK); err != nil {
		return err
	}
	hdrs := response.GetDefaultHeaders(len(body))
	hdrs.Del("Content-Type")
	if err := w.WriteHeaders(hdrs); err != nil {
		return err
	}
	_, err := w.WriteText(body)
	return err
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitWords breaks body into lines ending in \n, \r\n or \r and trims each
// one. Trailing empty lines are dropped before trimming, so a final
// whitespace-only line still yields an empty word. An empty body is one
// empty word.
func SplitWords(body string) []string {
	body = strings.TrimSuffix(lineBreaks.Replace(body), "\n")
	words := splitDropTrailing(body, "\n")
	for i, w := range words {
		words[i] = strings.TrimSpace(w)
	}
	return words
}

// splitDropTrailing splits s around sep and discards trailing empty fields.
// When sep does not occur, s is returned alone, even if empty.
func splitDropTrailing(s, sep string) []string {
	fields := strings.Split(s, sep)
	if len(fields) == 1 {
		return fields
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

func writeText(w *response.Writer, status response.StatusCode, contentType, body string) error {
	if err := w.WriteStatusLine(status); err != nil {
		return err
	}
	if err := w.WriteHeaders(textHeaders(contentType, body)); err != nil {
		return err
	}
	_, err := w.WriteText(body)
	return err
}

func textHeaders(contentType, body string) *headers.Headers {
	hdrs := response.GetDefaultHeaders(len(body))
	hdrs.Replace("Content-Type", contentType)
	return hdrs
}
