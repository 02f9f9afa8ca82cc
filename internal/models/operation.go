package models

// HTTP methods as they appear as keys of an OpenAPI path item
const (
	MethodGet     = "get"
	MethodPost    = "post"
	MethodPut     = "put"
	MethodPatch   = "patch"
	MethodDelete  = "delete"
	MethodHead    = "head"
	MethodOptions = "options"
)

// Parameter is a single entry of an operation's parameters list
type Parameter struct {
	Name string
	In   string
}

// MediaType holds the schema declared for one content type.
// A nil Schema means the document did not declare one.
type MediaType struct {
	Schema map[string]any
}

// Response is one entry of an operation's responses table
type Response struct {
	Content map[string]MediaType
}

// SecurityRequirement lists the scheme names of one security requirement
// object, in document order.
type SecurityRequirement []string

// OperationDocument is the definition of one HTTP method on one path.
//
// Every field is optional: a nil slice or map means the field was absent
// from the document. A nil *OperationDocument stands for a method that the
// path item does not define at all.
type OperationDocument struct {
	OperationID string
	Tags        []string

	Parameters []Parameter
	Responses  map[string]Response
	Security   []SecurityRequirement
}

// Response returns the response declared for the given status code
func (op *OperationDocument) Response(code string) (Response, bool) {
	if op == nil || op.Responses == nil {
		return Response{}, false
	}
	r, ok := op.Responses[code]
	return r, ok
}

// PathItem holds the operations of one route, keyed by lower-case method
type PathItem struct {
	Operations map[string]*OperationDocument
}

// Operation returns the operation for method, or nil if it is not defined
func (p PathItem) Operation(method string) *OperationDocument {
	if p.Operations == nil {
		return nil
	}
	return p.Operations[method]
}

// Document is a parsed OpenAPI document reduced to what comparison needs
type Document struct {
	Location string
	Title    string
	Version  string

	// Routes preserves the order of the paths table
	Routes []string
	Paths  map[string]PathItem
}

// PathItem looks up a route of the document
func (d *Document) PathItem(route string) (PathItem, bool) {
	if d == nil || d.Paths == nil {
		return PathItem{}, false
	}
	item, ok := d.Paths[route]
	return item, ok
}

// Credentials authenticate a document fetch. Token takes precedence over
// Username/Password.
type Credentials struct {
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Empty reports whether no credential is set
func (c *Credentials) Empty() bool {
	return c == nil || (c.Token == "" && c.Username == "" && c.Password == "")
}

// Source is the location of a document plus optional credentials
type Source struct {
	Location    string
	Credentials *Credentials
}
