package router

// Route binds a compiled pattern to an opaque handler. The dispatcher owns
// the handler's meaning; the router only selects it.
type Route struct {
	Pattern *Pattern
	Handler any
}

// Table is an ordered route collection. Routes are evaluated in the order
// they were added; the first match wins.
type Table struct {
	routes []Route
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add compiles pattern with the default variable prefix and appends the
// route. Invalid patterns panic; route tables are static configuration.
func (t *Table) Add(pattern string, handler any) *Table {
	t.routes = append(t.routes, Route{
		Pattern: MustCompile(pattern, DefaultPrefix),
		Handler: handler,
	})
	return t
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Lookup finds the first route matching path and returns it with the
// captured path variables. ok is false when no route matches.
func (t *Table) Lookup(path string) (Route, map[string]string, bool) {
	for _, route := range t.routes {
		if vars, ok := route.Pattern.Match(path); ok {
			return route, vars, true
		}
	}
	return Route{}, nil, false
}
