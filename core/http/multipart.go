package http

import (
	"bytes"
	"strings"
)

// parseMultipart splits a multipart/form-data body on its boundary and
// sorts the parts into scalar fields and file attachments. Parts carrying
// both a filename and a content type are collected as files, keyed by field
// name, so one field can hold several uploads.
func parseMultipart(body []byte, boundary string) (map[string]string, map[string][]FilePart) {
	fields := make(map[string]string)
	files := make(map[string][]FilePart)

	delim := []byte("--" + boundary)
	for _, part := range bytes.Split(body, delim) {
		part = bytes.TrimPrefix(part, []byte("\r\n"))
		if len(part) == 0 || bytes.HasPrefix(part, []byte("--")) {
			continue
		}

		head, data, ok := bytes.Cut(part, crlfcrlf)
		if !ok {
			continue
		}
		data = bytes.TrimSuffix(data, []byte("\r\n"))

		headers := parsePartHeaders(string(head))
		name := headers["name"]
		if name == "" {
			continue
		}

		filename, contentType := headers["filename"], headers["content-type"]
		if filename != "" && contentType != "" {
			files[name] = append(files[name], FilePart{
				Name: filename,
				Type: contentType,
				Data: append([]byte(nil), data...),
			})
		} else {
			fields[name] = string(data)
		}
	}

	return fields, files
}

// parsePartHeaders flattens a part's header block into one lower-cased map.
// Disposition parameters (name, filename) land next to plain headers such
// as content-type, with surrounding quotes stripped.
func parsePartHeaders(head string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(head, "\r\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		key = strings.ToLower(key)

		if key != "content-disposition" {
			headers[key] = value
			continue
		}
		for _, param := range strings.Split(value, ";") {
			param = strings.TrimSpace(param)
			pk, pv, ok := strings.Cut(param, "=")
			if !ok {
				continue
			}
			headers[strings.ToLower(pk)] = strings.Trim(pv, `"`)
		}
	}
	return headers
}
