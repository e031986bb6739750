package dispatch

import (
	"fmt"
	"log"

	"github.com/searchktools/wire-server/core/http"
	"github.com/searchktools/wire-server/core/router"
)

// Dispatch routes a parsed request through the table and returns the
// response to encode. Handler panics, binding failures and handler errors
// are converted into 500 responses so one bad handler cannot take down the
// accept loop. The only hard error is an unimplemented view verb with no
// template fallback.
func Dispatch(req *http.Request, routes *router.Table) (resp *http.Response, err error) {
	route, pathVars, ok := routes.Lookup(req.Path)
	if !ok {
		return finish(http.NewResponse(404)), nil
	}

	// Body values overlay path captures on key collision.
	merged := make(map[string]any, len(pathVars))
	for k, v := range pathVars {
		merged[k] = v
	}
	for k, v := range req.Body.Params() {
		merged[k] = v
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic: %s %s: %v", req.Method, req.Path, r)
			resp, err = finish(http.NewResponse(500)), nil
		}
	}()

	switch h := route.Handler.(type) {
	case *Func:
		args, bindErr := bind(h.Params, merged)
		if bindErr != nil {
			log.Printf("dispatch: %s %s: %v", req.Method, req.Path, bindErr)
			return finish(http.NewResponse(500)), nil
		}
		result, fnErr := h.Fn(req, args)
		return finishResult(req, result, fnErr, "")

	case *ViewHandler:
		return dispatchView(req, h, merged)

	default:
		// A bare value registered as a handler becomes the response body.
		return finish(normalize(fmt.Sprint(route.Handler), "")), nil
	}
}

// dispatchView instantiates the view and invokes the method named by the
// lower-cased request verb.
func dispatchView(req *http.Request, h *ViewHandler, merged map[string]any) (*http.Response, error) {
	view := h.New(req)

	template := ""
	if t, ok := view.(Templater); ok {
		template = t.Template()
	}

	method := verbMethod(view, req.Method)
	if method == nil {
		if template == "" {
			return nil, fmt.Errorf("%w: %s on %T", ErrNotImplemented, req.Method, view)
		}
		resp := http.NewResponse(200)
		resp.Body = template
		return finish(resp), nil
	}

	args, err := bind(h.Params, merged)
	if err != nil {
		log.Printf("dispatch: %s %s: %v", req.Method, req.Path, err)
		return finish(http.NewResponse(500)), nil
	}

	result, err := method(args)
	return finishResult(req, result, err, template)
}

// verbMethod resolves the view method for an HTTP verb, or nil when the
// view does not implement it.
func verbMethod(view View, verb string) func(Args) (any, error) {
	switch verb {
	case "GET":
		if v, ok := view.(Getter); ok {
			return v.Get
		}
	case "POST":
		if v, ok := view.(Poster); ok {
			return v.Post
		}
	case "PUT":
		if v, ok := view.(Putter); ok {
			return v.Put
		}
	case "DELETE":
		if v, ok := view.(Deleter); ok {
			return v.Delete
		}
	case "HEAD":
		if v, ok := view.(Header); ok {
			return v.Head
		}
	}
	return nil
}

// finishResult folds a handler invocation outcome into a response.
func finishResult(req *http.Request, result any, err error, template string) (*http.Response, error) {
	if err != nil {
		log.Printf("handler error: %s %s: %v", req.Method, req.Path, err)
		return finish(http.NewResponse(500)), nil
	}
	return finish(normalize(result, template)), nil
}

// normalize folds the polymorphic handler result into a Response:
// a *Response passes through, a falsy result becomes 501 "not implemented"
// (or the template when one is declared), anything else becomes a 200 whose
// body is the result itself.
func normalize(result any, template string) *http.Response {
	if resp, ok := result.(*http.Response); ok {
		if resp.Headers == nil {
			resp.Headers = http.NewHeaders()
		}
		if template != "" && bodyEmpty(resp.Body) {
			resp.Body = template
		}
		return resp
	}

	if falsy(result) {
		if template != "" {
			resp := http.NewResponse(200)
			resp.Body = template
			return resp
		}
		resp := http.NewResponse(501)
		resp.Body = "not implemented"
		return resp
	}

	resp := http.NewResponse(200)
	resp.Body = result
	return resp
}

// finish applies the one-shot connection default before handing the
// response to the encoder.
func finish(resp *http.Response) *http.Response {
	if !resp.Headers.Has("Connection") {
		resp.Headers.Set("Connection", "close")
	}
	return resp
}

func falsy(result any) bool {
	switch v := result.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	}
	return false
}

func bodyEmpty(body any) bool {
	switch v := body.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}
