package headers

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	crlf                = "\r\n"
	validFieldNameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#$%&'*+-.^_`|~"
)

// Headers is a case-insensitive field map that remembers the order in which
// names were first set. Keys are stored lower-cased.
type Headers struct {
	order  []string
	values map[string]string
}

func NewHeaders() *Headers {
	return &Headers{values: map[string]string{}}
}

// Parse consumes at most one field line from data. It reports done once the
// blank line terminating the header section has been read.
func (h *Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return 0, false, nil
	}
	if idx == 0 {
		n = idx + 2
		return n, true, nil
	}

	fields := data[:idx]
	colonIdx := bytes.IndexByte(fields, ':')
	if colonIdx == -1 {
		return 0, false, errors.Errorf("malformed header line (no colon): %q", fields)
	}

	prefix := fields[:colonIdx]
	name := bytes.TrimLeft(prefix, " \t")

	if len(name) == 0 || bytes.ContainsAny(prefix, " \t") {
		return 0, false, errors.Errorf("malformed field-name: %q", fields)
	}

	key := string(name)
	value := string(bytes.TrimSpace(fields[colonIdx+1:]))
	n = idx + 2

	for _, r := range key {
		if !strings.ContainsRune(validFieldNameChars, r) {
			return 0, false, errors.Errorf("invalid character in field-name: %q", fields)
		}
	}

	h.Set(key, value)

	return n, false, nil
}

// Set appends value to an existing field as a comma-separated list, the way
// repeated request header lines are combined.
func (h *Headers) Set(key, value string) {
	key = strings.ToLower(key)
	if v, ok := h.values[key]; ok {
		h.values[key] = v + ", " + value
		return
	}
	h.order = append(h.order, key)
	h.values[key] = value
}

// Replace overwrites a field, keeping its original position.
func (h *Headers) Replace(key, value string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = value
}

func (h *Headers) Get(key string) string {
	return h.values[strings.ToLower(key)]
}

// Lookup distinguishes an absent field from one set to the empty string.
func (h *Headers) Lookup(key string) (string, bool) {
	v, ok := h.values[strings.ToLower(key)]
	return v, ok
}

func (h *Headers) Del(key string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	return len(h.order)
}

// Each calls fn for every field in insertion order with the canonical
// (title-cased) field name.
func (h *Headers) Each(fn func(name, value string)) {
	caser := cases.Title(language.English)
	for _, k := range h.order {
		fn(caser.String(k), h.values[k])
	}
}
