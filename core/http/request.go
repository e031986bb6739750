package http

import "strings"

// Methods recognized by the parser. Anything else fails the start-line check.
var knownMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
	"HEAD":   {},
}

// KnownMethod reports whether method is part of the recognized set.
func KnownMethod(method string) bool {
	_, ok := knownMethods[method]
	return ok
}

// Request is a fully parsed HTTP request. It is created once per completed
// read and is not mutated after ParseRequest returns.
type Request struct {
	Method string
	Path   string
	Proto  string

	// Query holds percent-decoded query parameters, last value wins.
	Query map[string]string

	// Headers holds lower-cased header keys, last value wins.
	Headers map[string]string

	// Body is the typed request body.
	Body Body

	cookies map[string]string
}

// Header returns a header value by case-insensitive key.
func (r *Request) Header(key string) string {
	return r.Headers[strings.ToLower(key)]
}

// Cookies parses the cookie header on first use and caches the result.
// Returns an empty map when the request carries no cookie header.
func (r *Request) Cookies() map[string]string {
	if r.cookies == nil {
		r.cookies = parseCookies(r.Headers["cookie"])
	}
	return r.cookies
}

// Cookie returns a single cookie value, or "" when absent.
func (r *Request) Cookie(name string) string {
	return r.Cookies()[name]
}

// parseCookies splits a cookie header value into a map.
// "a=1; b=2" becomes {a: 1, b: 2}.
func parseCookies(value string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(value, "; ") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		cookies[decode(k)] = decode(v)
	}
	return cookies
}
