// Package parser reads OpenAPI documents into the models compared by the
// reconciler.
//
// OpenAPI 3 documents go through libopenapi. Anything else that carries a
// paths table, such as Swagger 2 or documents without a version, is read as
// written. Response schemas always come from the document as written so no
// keyword is lost.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"gopkg.in/yaml.v3"

	"github.com/moamenhredeen/specdrift/internal/models"
)

var defaultParser = New(nil)

// Parser reads OpenAPI documents
type Parser struct {
	logger *zap.Logger
}

// New creates a parser that reports document problems on logger
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ParseFile parses an OpenAPI specification file
func ParseFile(filePath string) (*models.Document, error) {
	return defaultParser.ParseFile(filePath)
}

// ParseBytes parses an OpenAPI document with the default parser
func ParseBytes(location string, specBytes []byte) (*models.Document, error) {
	return defaultParser.ParseBytes(location, specBytes)
}

// ParseFile parses an OpenAPI specification file
func (p *Parser) ParseFile(filePath string) (*models.Document, error) {
	specBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI file: %w", err)
	}

	return p.ParseBytes(filePath, specBytes)
}

// ParseBytes parses a document in JSON or YAML form. location is only
// recorded on the result. It fails only when the bytes are not a JSON or
// YAML mapping.
func (p *Parser) ParseBytes(location string, specBytes []byte) (*models.Document, error) {
	logger := p.logger.With(zap.String("location", location))

	raw, err := decodeRaw(specBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	if !raw.isOpenAPI3() {
		logger.Debug("reading document without an OpenAPI 3 model", zap.String("version", raw.version()))
		return raw.document(location), nil
	}

	doc, err := p.parseOpenAPI3(logger, location, specBytes, raw)
	if err != nil {
		logger.Warn("reading document without an OpenAPI 3 model", zap.Error(err))
		return raw.document(location), nil
	}
	return doc, nil
}

func (p *Parser) parseOpenAPI3(logger *zap.Logger, location string, specBytes []byte, raw *rawDocument) (*models.Document, error) {
	config := datamodel.NewDocumentConfiguration()
	config.Logger = slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithName("libopenapi")))

	document, err := libopenapi.NewDocumentWithConfiguration(specBytes, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	model, errs := document.BuildV3Model()
	err = errors.Join(errs...)
	if model == nil {
		return nil, fmt.Errorf("failed to build v3 model: %w", err)
	}
	if err != nil {
		// circular or dangling references are reported next to a usable model
		logger.Warn("OpenAPI document built with errors", zap.Error(err))
	}

	doc := &models.Document{
		Location: location,
		Routes:   []string{},
		Paths:    map[string]models.PathItem{},
	}
	if info := model.Model.Info; info != nil {
		doc.Title = info.Title
		doc.Version = info.Version
	}

	paths := model.Model.Paths
	if paths == nil || paths.PathItems == nil {
		return doc, nil
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		route := pair.Key()
		pathItemValue := pair.Value()
		if pathItemValue == nil {
			continue
		}

		doc.Routes = append(doc.Routes, route)
		doc.Paths[route] = convertPathItem(pathItemValue, raw, raw.pathNode(route))
	}

	return doc, nil
}

func convertPathItem(pathItem *v3.PathItem, raw *rawDocument, rawItem *yaml.Node) models.PathItem {
	operations := map[string]*v3.Operation{
		models.MethodGet:     pathItem.Get,
		models.MethodPost:    pathItem.Post,
		models.MethodPut:     pathItem.Put,
		models.MethodPatch:   pathItem.Patch,
		models.MethodDelete:  pathItem.Delete,
		models.MethodHead:    pathItem.Head,
		models.MethodOptions: pathItem.Options,
	}

	item := models.PathItem{Operations: make(map[string]*models.OperationDocument, len(operations))}
	for method, op := range operations {
		if op == nil {
			continue
		}
		item.Operations[method] = convertOperation(op, raw, raw.operationNode(rawItem, method))
	}
	return item
}

// convertOperation takes identity and security from the model. Parameters
// and responses are read as written: the model drops a whole parameter list
// over one dangling reference and keeps only the schema keywords it knows.
func convertOperation(op *v3.Operation, raw *rawDocument, rawOp *yaml.Node) *models.OperationDocument {
	doc := &models.OperationDocument{
		OperationID: op.OperationId,
		Parameters:  raw.parameters(rawOp),
		Responses:   raw.responses(rawOp),
	}
	if op.Tags != nil {
		doc.Tags = append([]string{}, op.Tags...)
	}

	if op.Security != nil {
		doc.Security = make([]models.SecurityRequirement, 0, len(op.Security))
		for _, requirement := range op.Security {
			doc.Security = append(doc.Security, schemeNames(requirement))
		}
	}

	return doc
}

func schemeNames(requirement *base.SecurityRequirement) models.SecurityRequirement {
	names := models.SecurityRequirement{}
	if requirement == nil || requirement.Requirements == nil {
		return names
	}
	for pair := requirement.Requirements.First(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key())
	}
	return names
}
