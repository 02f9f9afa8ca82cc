package parser

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/moamenhredeen/specdrift/internal/models"
)

// methods are the path item keys read as operations
var methods = []string{
	models.MethodGet,
	models.MethodPost,
	models.MethodPut,
	models.MethodPatch,
	models.MethodDelete,
	models.MethodHead,
	models.MethodOptions,
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// rawDocument is a document as written, before any OpenAPI model is built.
// Only local references ("#/...") are followed.
type rawDocument struct {
	root   *yaml.Node
	logger *zap.Logger
}

func decodeRaw(specBytes []byte, logger *zap.Logger) (*rawDocument, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(specBytes, &node); err != nil {
		return nil, err
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root = deref(root); root.Kind != yaml.MappingNode {
		return nil, errors.New("document is not a mapping")
	}
	return &rawDocument{root: root, logger: logger}, nil
}

// version is the declared openapi or swagger version, if any
func (r *rawDocument) version() string {
	if v := scalar(field(r.root, "openapi")); v != "" {
		return v
	}
	return scalar(field(r.root, "swagger"))
}

func (r *rawDocument) isOpenAPI3() bool {
	return strings.HasPrefix(scalar(field(r.root, "openapi")), "3.")
}

// document reads every route of the paths table, whatever the declared
// version. Sections that are missing or malformed are left empty.
func (r *rawDocument) document(location string) *models.Document {
	info := field(r.root, "info")
	doc := &models.Document{
		Location: location,
		Title:    scalar(field(info, "title")),
		Version:  scalar(field(info, "version")),
		Routes:   []string{},
		Paths:    map[string]models.PathItem{},
	}

	each(field(r.root, "paths"), func(route string, value *yaml.Node) {
		node, ok := r.resolve(value)
		if !ok || node.Kind != yaml.MappingNode {
			return
		}
		if _, dup := doc.Paths[route]; !dup {
			doc.Routes = append(doc.Routes, route)
		}
		doc.Paths[route] = r.pathItem(node)
	})
	return doc
}

func (r *rawDocument) pathItem(node *yaml.Node) models.PathItem {
	item := models.PathItem{Operations: map[string]*models.OperationDocument{}}
	for _, method := range methods {
		if op := r.operationNode(node, method); op != nil {
			item.Operations[method] = r.operation(op)
		}
	}
	return item
}

// pathNode is the resolved path item of route, nil when absent
func (r *rawDocument) pathNode(route string) *yaml.Node {
	node, ok := r.resolve(field(field(r.root, "paths"), route))
	if !ok || node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func (r *rawDocument) operationNode(pathItem *yaml.Node, method string) *yaml.Node {
	node, ok := r.resolve(field(pathItem, method))
	if !ok || node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func (r *rawDocument) operation(node *yaml.Node) *models.OperationDocument {
	return &models.OperationDocument{
		OperationID: scalar(field(node, "operationId")),
		Tags:        scalars(field(node, "tags")),
		Parameters:  r.parameters(node),
		Responses:   r.responses(node),
		Security:    security(field(node, "security")),
	}
}

// parameters lists name and location of each parameter. An entry whose
// reference cannot be followed, or that has no name, is skipped on its own.
func (r *rawDocument) parameters(op *yaml.Node) []models.Parameter {
	list := field(op, "parameters")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil
	}

	params := make([]models.Parameter, 0, len(list.Content))
	for _, entry := range list.Content {
		param, ok := r.resolve(entry)
		if !ok {
			continue
		}
		name := scalar(field(param, "name"))
		if name == "" {
			continue
		}
		params = append(params, models.Parameter{Name: name, In: scalar(field(param, "in"))})
	}
	return params
}

func (r *rawDocument) responses(op *yaml.Node) map[string]models.Response {
	codes := field(op, "responses")
	if codes == nil || codes.Kind != yaml.MappingNode {
		return nil
	}

	responses := map[string]models.Response{}
	each(codes, func(code string, value *yaml.Node) {
		if response, ok := r.resolve(value); ok {
			responses[code] = r.response(response)
		}
	})
	return responses
}

func (r *rawDocument) response(node *yaml.Node) models.Response {
	content := field(node, "content")
	if content == nil || content.Kind != yaml.MappingNode {
		return models.Response{}
	}

	media := make(map[string]models.MediaType, len(content.Content)/2)
	each(content, func(mediaType string, value *yaml.Node) {
		media[mediaType] = models.MediaType{Schema: r.schema(field(value, "schema"))}
	})
	return models.Response{Content: media}
}

// schema decodes a schema tree keeping every keyword, with local references
// inlined. A reference back into a schema being inlined is kept as written.
func (r *rawDocument) schema(node *yaml.Node) map[string]any {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	tree, _ := r.inline(node, nil).(map[string]any)
	return tree
}

func (r *rawDocument) inline(node *yaml.Node, refs []string) any {
	node = deref(node)
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		if ref := scalar(field(node, "$ref")); ref != "" && !slices.Contains(refs, ref) {
			if target, ok := r.lookup(ref); ok {
				return r.inline(target, append(slices.Clone(refs), ref))
			}
			r.logger.Warn("unresolved schema reference", zap.String("ref", ref))
		}
		tree := make(map[string]any, len(node.Content)/2)
		each(node, func(key string, value *yaml.Node) {
			tree[key] = r.inline(value, refs)
		})
		return tree

	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			list = append(list, r.inline(item, refs))
		}
		return list

	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return node.Value
		}
		return value
	}
}

// resolve follows references until it reaches a node that is not one
func (r *rawDocument) resolve(node *yaml.Node) (*yaml.Node, bool) {
	node = deref(node)
	seen := map[string]bool{}
	for node != nil {
		ref := scalar(field(node, "$ref"))
		if ref == "" {
			return node, true
		}
		if seen[ref] {
			r.logger.Warn("circular reference", zap.String("ref", ref))
			return nil, false
		}
		seen[ref] = true

		target, ok := r.lookup(ref)
		if !ok {
			r.logger.Warn("unresolved reference", zap.String("ref", ref))
			return nil, false
		}
		node = target
	}
	return nil, false
}

// lookup evaluates a local JSON pointer reference against the document root
func (r *rawDocument) lookup(ref string) (*yaml.Node, bool) {
	pointer, local := strings.CutPrefix(ref, "#")
	if !local {
		return nil, false
	}
	if pointer == "" {
		return r.root, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}

	node := r.root
	for _, token := range strings.Split(pointer[1:], "/") {
		token = pointerUnescaper.Replace(token)
		switch node.Kind {
		case yaml.MappingNode:
			node = field(node, token)
		case yaml.SequenceNode:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node.Content) {
				return nil, false
			}
			node = deref(node.Content[i])
		default:
			return nil, false
		}
		if node == nil {
			return nil, false
		}
	}
	return node, true
}

func security(node *yaml.Node) []models.SecurityRequirement {
	node = deref(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}

	requirements := make([]models.SecurityRequirement, 0, len(node.Content))
	for _, entry := range node.Content {
		names := models.SecurityRequirement{}
		each(entry, func(name string, _ *yaml.Node) {
			names = append(names, name)
		})
		requirements = append(requirements, names)
	}
	return requirements
}

func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// field returns the value of key in a mapping node, nil if absent
func field(node *yaml.Node, key string) *yaml.Node {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return deref(node.Content[i+1])
		}
	}
	return nil
}

// each calls fn for every entry of a mapping node, in document order
func each(node *yaml.Node, fn func(key string, value *yaml.Node)) {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		fn(node.Content[i].Value, deref(node.Content[i+1]))
	}
}

func scalar(node *yaml.Node) string {
	node = deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func scalars(node *yaml.Node) []string {
	node = deref(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		values = append(values, scalar(item))
	}
	return values
}
