// Package projector reduces an operation to the shape that is compared
// between two documents.
//
// None of the extractors fail: OpenAPI documents may omit any of the fields
// they read, and an omitted field projects to an empty value.
package projector

import (
	"github.com/mohae/deepcopy"

	"github.com/moamenhredeen/specdrift/internal/models"
)

const (
	jsonContentType = "application/json"
	headerLocation  = "header"
)

// successCodes are tried in order when looking for the response body
var successCodes = []string{"200", "204"}

// Project builds the route specification of op. A nil op projects to an
// all-empty specification.
func Project(op *models.OperationDocument) models.RouteSpecification {
	return models.RouteSpecification{
		QueryParameters:       ExtractQueryParameters(op),
		ResponseBody:          ExtractResponseBody(op),
		AllowedHeaders:        ExtractAllowedHeaders(op),
		AuthenticationMethods: ExtractAuthenticationMethods(op),
	}
}

// ExtractQueryParameters returns the names of all parameters in document
// order. Duplicates are kept.
func ExtractQueryParameters(op *models.OperationDocument) []string {
	if op == nil || op.Parameters == nil {
		return []string{}
	}

	names := make([]string, 0, len(op.Parameters))
	for _, param := range op.Parameters {
		names = append(names, param.Name)
	}
	return names
}

// ExtractAllowedHeaders returns the names of the parameters located in the
// request headers
func ExtractAllowedHeaders(op *models.OperationDocument) []string {
	headers := []string{}
	if op == nil || op.Parameters == nil {
		return headers
	}

	for _, param := range op.Parameters {
		if param.In == headerLocation {
			headers = append(headers, param.Name)
		}
	}
	return headers
}

// ExtractResponseBody returns a copy of the JSON schema of the success
// response: "200" first, then "204", then an empty schema.
func ExtractResponseBody(op *models.OperationDocument) map[string]any {
	for _, code := range successCodes {
		if schema, ok := jsonSchema(op, code); ok {
			return schema
		}
	}
	return map[string]any{}
}

func jsonSchema(op *models.OperationDocument, code string) (map[string]any, bool) {
	response, ok := op.Response(code)
	if !ok || response.Content == nil {
		return nil, false
	}
	media, ok := response.Content[jsonContentType]
	if !ok || media.Schema == nil {
		return nil, false
	}
	schema, ok := deepcopy.Copy(media.Schema).(map[string]any)
	return schema, ok
}

// ExtractAuthenticationMethods returns, for every security requirement, the
// names of its schemes. An absent security list yields an empty sequence.
func ExtractAuthenticationMethods(op *models.OperationDocument) [][]string {
	if op == nil || op.Security == nil {
		return [][]string{}
	}

	methods := make([][]string, 0, len(op.Security))
	for _, requirement := range op.Security {
		names := make([]string, 0, len(requirement))
		names = append(names, requirement...)
		methods = append(methods, names)
	}
	return methods
}
