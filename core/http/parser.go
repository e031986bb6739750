package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
)

var (
	// ErrInvalidRequest reports a malformed start-line or a missing
	// header/body separator. It is always surfaced, never recovered.
	ErrInvalidRequest = errors.New("invalid HTTP request")
)

var crlfcrlf = []byte("\r\n\r\n")

// ParseRequest turns a raw request buffer into a structured Request.
//
// The buffer is split once on the first blank line into a header section and
// a body section. The body is interpreted according to the content-type
// header; an undecodable JSON body is logged and degraded to an empty body
// rather than failing the parse.
func ParseRequest(raw []byte) (*Request, error) {
	sep := bytes.Index(raw, crlfcrlf)
	if sep == -1 {
		return nil, ErrInvalidRequest
	}

	head := string(raw[:sep])
	body := raw[sep+len(crlfcrlf):]

	lines := strings.Split(head, "\r\n")
	method, target, proto, err := parseStartLine(lines[0])
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:  method,
		Proto:   proto,
		Query:   make(map[string]string),
		Headers: make(map[string]string, len(lines)-1),
	}

	path := target
	if rawPath, rawQuery, ok := strings.Cut(target, "?"); ok {
		path = rawPath
		parseQuery(req.Query, rawQuery)
	}
	req.Path = decode(path)

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		req.Headers[strings.ToLower(key)] = value
	}

	req.Body = parseBody(body, req.Headers["content-type"])

	return req, nil
}

// parseStartLine validates and splits "METHOD TARGET HTTP/x.y".
func parseStartLine(line string) (method, target, proto string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", "", "", ErrInvalidRequest
	}
	method, target, proto = fields[0], fields[1], fields[2]
	if !KnownMethod(method) || !strings.HasPrefix(proto, "HTTP/") {
		return "", "", "", ErrInvalidRequest
	}
	return method, target, proto, nil
}

// parseQuery fills dst with percent-decoded &-delimited key=value pairs.
// Duplicate keys keep the last value.
func parseQuery(dst map[string]string, query string) {
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		dst[decode(k)] = decode(v)
	}
}

// parseBody interprets the body section by declared content type.
func parseBody(body []byte, contentType string) Body {
	if len(body) == 0 {
		return Body{Kind: BodyEmpty}
	}

	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		form := make(map[string]string)
		parseQuery(form, string(body))
		return Body{Kind: BodyForm, Form: form}

	case strings.HasPrefix(contentType, "multipart/form-data"):
		boundary := boundaryParam(contentType)
		if boundary == "" {
			log.Printf("multipart body without boundary, dropping body")
			return Body{Kind: BodyEmpty}
		}
		fields, files := parseMultipart(body, boundary)
		return Body{Kind: BodyMultipart, Fields: fields, Files: files}

	default:
		var value any
		if err := json.Unmarshal(body, &value); err != nil {
			log.Printf("body decode failed: %v", err)
			return Body{Kind: BodyEmpty}
		}
		return Body{Kind: BodyJSON, JSON: value}
	}
}

// boundaryParam extracts the boundary parameter from a multipart
// content-type value.
func boundaryParam(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, "boundary="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}

// decode percent-decodes a value, treating '+' as space. Undecodable input
// is returned as-is.
func decode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
