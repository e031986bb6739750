package http

// BodyKind tags the parsed body variant.
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyForm
	BodyJSON
	BodyMultipart
)

// FilePart is one uploaded file from a multipart body.
type FilePart struct {
	Name string // original filename
	Type string // declared mime type
	Data []byte // raw content
}

// Body is the tagged body variant of a Request. Exactly one of the payload
// fields is populated, selected by Kind.
type Body struct {
	Kind BodyKind

	// Form holds form-encoded key/value pairs (BodyForm).
	Form map[string]string

	// JSON holds an arbitrary decoded JSON value (BodyJSON).
	JSON any

	// Fields and Files hold multipart scalars and file attachments keyed by
	// field name (BodyMultipart). A field may carry multiple files.
	Fields map[string]string
	Files  map[string][]FilePart
}

// Params returns the body as a flat parameter mapping for handler binding.
// Non-mapping bodies (empty, or JSON that is not an object) yield nil.
func (b Body) Params() map[string]any {
	switch b.Kind {
	case BodyForm:
		params := make(map[string]any, len(b.Form))
		for k, v := range b.Form {
			params[k] = v
		}
		return params
	case BodyJSON:
		obj, ok := b.JSON.(map[string]any)
		if !ok {
			return nil
		}
		params := make(map[string]any, len(obj))
		for k, v := range obj {
			params[k] = v
		}
		return params
	case BodyMultipart:
		params := make(map[string]any, len(b.Fields)+len(b.Files))
		for k, v := range b.Fields {
			params[k] = v
		}
		for k, v := range b.Files {
			params[k] = v
		}
		return params
	default:
		return nil
	}
}
