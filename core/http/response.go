package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrUnknownStatus reports an unrecognized numeric status code handed to
// the encoder. Like ErrInvalidRequest it is always surfaced.
var ErrUnknownStatus = errors.New("unknown HTTP status code")

// Named codes for the statuses the framework itself produces. Handlers may
// use any code StatusText recognizes.
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

// Headers is an insertion-ordered header mapping. Setting an existing key
// overwrites the value in place without changing its position.
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders returns an empty ordered header map.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string]string)}
}

// Set stores a header value, preserving first-insertion order.
func (h *Headers) Set(key, value string) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns a header value, or "" when absent.
func (h *Headers) Get(key string) string {
	return h.values[key]
}

// Has reports whether the key is present.
func (h *Headers) Has(key string) bool {
	_, ok := h.values[key]
	return ok
}

// Len returns the number of stored headers.
func (h *Headers) Len() int {
	return len(h.keys)
}

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(key, value string)) {
	for _, k := range h.keys {
		fn(k, h.values[k])
	}
}

// Response is a (status, headers, body) triple awaiting encoding. Body may
// be a string, raw bytes, or a map/slice that encodes to indented JSON.
// A Response is consumed exactly once by Encode and not reused.
type Response struct {
	Status  int
	Headers *Headers
	Body    any
}

// NewResponse constructs a response with empty ordered headers.
func NewResponse(status int) *Response {
	return &Response{Status: status, Headers: NewHeaders()}
}

// Encode serializes the response to wire bytes:
// status line, CRLF-joined headers, blank line, body. The Content-Length
// header always reflects the final body length.
func (r *Response) Encode() ([]byte, error) {
	phrase := StatusText(r.Status)
	if phrase == "" {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, r.Status)
	}

	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	if r.Headers == nil {
		r.Headers = NewHeaders()
	}
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))

	var b strings.Builder
	b.Grow(64 + len(body))
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, phrase)

	lines := make([]string, 0, r.Headers.Len())
	r.Headers.Each(func(key, value string) {
		lines = append(lines, key+": "+value)
	})
	b.WriteString(strings.Join(lines, "\r\n"))
	b.WriteString("\r\n\r\n")
	b.Write(body)

	return []byte(b.String()), nil
}

// encodeBody renders the polymorphic body value. Maps, slices and arrays
// serialize to indented JSON; strings and bytes pass through.
func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}

	switch reflect.TypeOf(body).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return json.MarshalIndent(body, "", "  ")
	}
	return []byte(fmt.Sprint(body)), nil
}

// StatusText returns the reason phrase for a status code, or "" when the
// code is not recognized.
func StatusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 206:
		return "Partial Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 406:
		return "Not Acceptable"
	case 408:
		return "Request Timeout"
	case 409:
		return "Conflict"
	case 410:
		return "Gone"
	case 411:
		return "Length Required"
	case 413:
		return "Payload Too Large"
	case 414:
		return "URI Too Long"
	case 415:
		return "Unsupported Media Type"
	case 418:
		return "I'm a teapot"
	case 422:
		return "Unprocessable Entity"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	case 505:
		return "HTTP Version Not Supported"
	default:
		return ""
	}
}
