// Package dispatch selects a handler for a parsed request, binds coerced
// parameters, invokes it and normalizes the result into a Response.
package dispatch

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/searchktools/wire-server/core/http"
)

var (
	// ErrNotImplemented reports a view that handles none of the request's
	// verb and declares no template fallback. It propagates to the caller
	// because it indicates a route misconfiguration, not a request error.
	ErrNotImplemented = errors.New("view method not implemented")

	// ErrBinding reports a missing required parameter or a failed type
	// coercion. It is recovered into a 500 response at the dispatch
	// boundary.
	ErrBinding = errors.New("parameter binding failed")
)

// Kind is the declared type of a handler parameter.
type Kind uint8

const (
	String Kind = iota
	Int
	Float
	Bool
	Any // passed through uncoerced, e.g. file attachments
)

// Param declares one named handler parameter. Required params that are
// absent from the merged path/body mapping fail the dispatch.
type Param struct {
	Name     string
	Kind     Kind
	Required bool
}

// P declares a required parameter of the given kind.
func P(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind, Required: true}
}

// Optional returns a copy of the parameter that may be absent.
func (p Param) Optional() Param {
	p.Required = false
	return p
}

// Args holds the bound, coerced parameters for one invocation.
type Args map[string]any

// Get returns a raw bound value.
func (a Args) Get(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// String returns a bound string parameter, or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns a bound integer parameter, or 0.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Float returns a bound float parameter, or 0.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// Bool returns a bound boolean parameter, or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Files returns the file attachments bound under name, or nil.
func (a Args) Files(name string) []http.FilePart {
	f, _ := a[name].([]http.FilePart)
	return f
}

// HandlerFunc is a plain function handler. It receives the request plus its
// declared parameters and returns a raw result for normalization.
type HandlerFunc func(req *http.Request, args Args) (any, error)

// Func is the function handler variant.
type Func struct {
	Fn     HandlerFunc
	Params []Param
}

// NewFunc wraps a function with its declared parameters.
func NewFunc(fn HandlerFunc, params ...Param) *Func {
	return &Func{Fn: fn, Params: params}
}

// View is a stateful handler constructed once per request. Implementations
// opt into verbs through the Getter, Poster, Putter, Deleter and Header
// interfaces.
type View any

// Factory builds a view for one request.
type Factory func(req *http.Request) View

// ViewHandler is the stateful handler variant.
type ViewHandler struct {
	New    Factory
	Params []Param
}

// NewView wraps a view factory with its declared parameters.
func NewView(factory Factory, params ...Param) *ViewHandler {
	return &ViewHandler{New: factory, Params: params}
}

// Per-verb view interfaces. A view handles only the verbs it implements.
type (
	Getter interface {
		Get(args Args) (any, error)
	}
	Poster interface {
		Post(args Args) (any, error)
	}
	Putter interface {
		Put(args Args) (any, error)
	}
	Deleter interface {
		Delete(args Args) (any, error)
	}
	Header interface {
		Head(args Args) (any, error)
	}
)

// Templater is an optional view interface declaring a static body used when
// the request's verb is unimplemented, or when the verb's result carries an
// empty body.
type Templater interface {
	Template() string
}

// bind coerces the merged parameter values into Args following the declared
// parameter list. Undeclared values are ignored; missing required ones and
// coercion failures return ErrBinding.
func bind(params []Param, merged map[string]any) (Args, error) {
	args := make(Args, len(params))
	for _, p := range params {
		raw, ok := merged[p.Name]
		if !ok {
			if p.Required {
				return nil, fmt.Errorf("%w: missing parameter %q", ErrBinding, p.Name)
			}
			continue
		}
		value, err := coerce(raw, p.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrBinding, p.Name, err)
		}
		args[p.Name] = value
	}
	return args, nil
}

// coerce converts a raw string (or JSON-typed) value to the declared kind.
func coerce(raw any, kind Kind) (any, error) {
	switch kind {
	case String:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprint(raw), nil

	case Int:
		switch v := raw.(type) {
		case string:
			return strconv.Atoi(v)
		case float64:
			return int(v), nil
		case int:
			return v, nil
		}

	case Float:
		switch v := raw.(type) {
		case string:
			return strconv.ParseFloat(v, 64)
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}

	case Bool:
		switch v := raw.(type) {
		case string:
			return strconv.ParseBool(v)
		case bool:
			return v, nil
		}

	case Any:
		return raw, nil
	}
	return nil, fmt.Errorf("cannot coerce %T", raw)
}
