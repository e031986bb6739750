package http

import (
	"strings"
	"testing"
)

func TestParseRequestStartLine(t *testing.T) {
	raw := []byte("GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.Path != "/hello" {
		t.Errorf("Path = %q, want /hello", req.Path)
	}
	if req.Proto != "HTTP/1.1" {
		t.Errorf("Proto = %q, want HTTP/1.1", req.Proto)
	}
	if req.Body.Kind != BodyEmpty {
		t.Errorf("Body.Kind = %v, want BodyEmpty", req.Body.Kind)
	}
}

func TestParseRequestHeaders(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\nUser-Agent: test/1.0\r\nX-Custom: a: b\r\n\r\n")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got := req.Header("Host"); got != "example.com" {
		t.Errorf("Header(Host) = %q", got)
	}
	if got := req.Header("USER-AGENT"); got != "test/1.0" {
		t.Errorf("Header(USER-AGENT) = %q", got)
	}
	// Split happens on the first ": " only.
	if got := req.Header("x-custom"); got != "a: b" {
		t.Errorf("Header(x-custom) = %q", got)
	}
}

func TestParseRequestQuery(t *testing.T) {
	raw := []byte("GET /search?q=hello%20world&page=2&flag HTTP/1.1\r\n\r\n")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Path != "/search" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Query["q"] != "hello world" {
		t.Errorf("Query[q] = %q", req.Query["q"])
	}
	if req.Query["page"] != "2" {
		t.Errorf("Query[page] = %q", req.Query["page"])
	}
	if v, ok := req.Query["flag"]; !ok || v != "" {
		t.Errorf("Query[flag] = %q, %v", v, ok)
	}
}

func TestParseRequestCookies(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nCookie: session=abc123; theme=dark\r\n\r\n")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got := req.Cookie("session"); got != "abc123" {
		t.Errorf("Cookie(session) = %q", got)
	}
	if got := req.Cookie("theme"); got != "dark" {
		t.Errorf("Cookie(theme) = %q", got)
	}
	if got := req.Cookie("missing"); got != "" {
		t.Errorf("Cookie(missing) = %q", got)
	}
}

func TestParseRequestNoCookieHeader(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\n\r\n")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got := req.Cookies(); len(got) != 0 {
		t.Errorf("Cookies() = %v, want empty", got)
	}
}

func TestParseRequestJSONBody(t *testing.T) {
	raw := []byte("POST /api HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"a\": 1, \"b\": \"two\"}")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Body.Kind != BodyJSON {
		t.Fatalf("Body.Kind = %v, want BodyJSON", req.Body.Kind)
	}
	params := req.Body.Params()
	if params["a"] != float64(1) {
		t.Errorf("params[a] = %v (%T)", params["a"], params["a"])
	}
	if params["b"] != "two" {
		t.Errorf("params[b] = %v", params["b"])
	}
}

func TestParseRequestInvalidJSONBody(t *testing.T) {
	raw := []byte("POST /api HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{not json")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("undecodable body must not fail the parse: %v", err)
	}
	if req.Body.Kind != BodyEmpty {
		t.Errorf("Body.Kind = %v, want BodyEmpty", req.Body.Kind)
	}
	if req.Body.Params() != nil {
		t.Errorf("Params() = %v, want nil", req.Body.Params())
	}
}

func TestParseRequestFormBody(t *testing.T) {
	raw := []byte("POST /login HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\nuser=alice&pass=s%20cret")
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Body.Kind != BodyForm {
		t.Fatalf("Body.Kind = %v, want BodyForm", req.Body.Kind)
	}
	if req.Body.Form["user"] != "alice" {
		t.Errorf("Form[user] = %q", req.Body.Form["user"])
	}
	if req.Body.Form["pass"] != "s cret" {
		t.Errorf("Form[pass] = %q", req.Body.Form["pass"])
	}
}

func TestParseRequestMultipartBody(t *testing.T) {
	boundary := "XXBOUNDXX"
	body := strings.Join([]string{
		"--" + boundary,
		`Content-Disposition: form-data; name="name"`,
		"",
		"Alice",
		"--" + boundary,
		`Content-Disposition: form-data; name="upload"; filename="hello.txt"`,
		"Content-Type: text/plain",
		"",
		"hello multipart",
		"--" + boundary + "--",
		"",
	}, "\r\n")
	raw := []byte("POST /upload HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=" + boundary + "\r\n\r\n" + body)

	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Body.Kind != BodyMultipart {
		t.Fatalf("Body.Kind = %v, want BodyMultipart", req.Body.Kind)
	}
	if req.Body.Fields["name"] != "Alice" {
		t.Errorf("Fields[name] = %q", req.Body.Fields["name"])
	}
	files := req.Body.Files["upload"]
	if len(files) != 1 {
		t.Fatalf("Files[upload] has %d entries, want 1", len(files))
	}
	if files[0].Name != "hello.txt" {
		t.Errorf("file Name = %q", files[0].Name)
	}
	if files[0].Type != "text/plain" {
		t.Errorf("file Type = %q", files[0].Type)
	}
	if string(files[0].Data) != "hello multipart" {
		t.Errorf("file Data = %q", files[0].Data)
	}
}

func TestParseRequestErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no separator", "GET / HTTP/1.1\r\nHost: x"},
		{"bad field count", "GET /\r\n\r\n"},
		{"unknown method", "BREW /coffee HTTP/1.1\r\n\r\n"},
		{"bad proto", "GET / SPDY/3\r\n\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRequest([]byte(tc.raw)); err == nil {
				t.Fatalf("ParseRequest(%q) succeeded, want error", tc.raw)
			}
		})
	}
}

func BenchmarkParseRequest(b *testing.B) {
	raw := []byte("GET /api/users/42?fields=name HTTP/1.1\r\nHost: localhost\r\nUser-Agent: bench\r\n\r\n")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseRequest(raw); err != nil {
			b.Fatal(err)
		}
	}
}
