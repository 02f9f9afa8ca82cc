package reconciler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moamenhredeen/specdrift/internal/models"
	"github.com/moamenhredeen/specdrift/internal/parser"
)

const itemsReference = `{
  "openapi": "3.0.3",
  "info": {"title": "reference", "version": "1.0.0"},
  "paths": {
    "/items": {
      "get": {
        "parameters": [{"name": "limit", "in": "query"}],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "array"}}}}}
      }
    }
  }
}`

const itemsWithoutLimit = `{
  "openapi": "3.0.3",
  "info": {"title": "candidate", "version": "1.0.0"},
  "paths": {
    "/items": {
      "get": {
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "array"}}}}}
      }
    }
  }
}`

func parse(t *testing.T, location, spec string) *models.Document {
	t.Helper()
	doc, err := parser.ParseBytes(location, []byte(spec))
	require.NoError(t, err)
	return doc
}

func TestReconcileMissingQueryParameter(t *testing.T) {
	reference := parse(t, "reference", itemsReference)
	candidate := parse(t, "candidate", itemsWithoutLimit)

	report := Reconcile(reference, candidate)

	assert.Equal(t, map[string][]string{
		"/items": {"Mismatch in query parameters: limit"},
	}, report.Messages())
	require.Len(t, report.Routes, 1)
	assert.Equal(t, models.MethodGet, report.Routes[0].Discrepancies[0].Method)
	assert.Equal(t, "candidate", report.Location)
}

func TestReconcileDocumentsWithoutVersion(t *testing.T) {
	reference := parse(t, "reference", `{"paths": {"/items": {"get": {
    "parameters": [{"name": "limit", "in": "query"}],
    "responses": {"200": {"content": {"application/json": {"schema": {"type": "array"}}}}}
  }}}}`)
	candidate := parse(t, "candidate", `{"paths": {"/items": {"get": {
    "responses": {"200": {"content": {"application/json": {"schema": {"type": "array"}}}}}
  }}}}`)

	report := Reconcile(reference, candidate)

	assert.Equal(t, map[string][]string{
		"/items": {"Mismatch in query parameters: limit"},
	}, report.Messages())
}

func TestReconcileUnmodelledSchemaKeyword(t *testing.T) {
	document := func(size int) string {
		return fmt.Sprintf(`{"openapi": "3.0.3", "info": {"title": "t", "version": "1"},
  "paths": {"/things": {"get": {"responses": {"200": {"description": "ok",
    "content": {"application/json": {"schema": {"type": "object", "x-size": %d}}}}}}}}}`, size)
	}

	report := Reconcile(parse(t, "reference", document(1)), parse(t, "candidate", document(2)))

	assert.Equal(t, map[string][]string{"/things": {"Mismatch in response body"}}, report.Messages())
}

func TestReconcileIdenticalDocuments(t *testing.T) {
	reference := parse(t, "reference", itemsReference)
	candidate := parse(t, "candidate", itemsReference)

	report := Reconcile(reference, candidate)
	assert.False(t, report.HasDiscrepancies())
	assert.Empty(t, report.Messages())
}

func TestReconcileRouteNotFound(t *testing.T) {
	reference := &models.Document{
		Routes: []string{"/users"},
		Paths: map[string]models.PathItem{
			"/users": {Operations: map[string]*models.OperationDocument{
				models.MethodGet: {Parameters: []models.Parameter{{Name: "page", In: "query"}}},
			}},
		},
	}
	candidate := &models.Document{Paths: map[string]models.PathItem{}}

	report := Reconcile(reference, candidate)

	assert.Equal(t, map[string][]string{"/users": {"Route not found in repository"}}, report.Messages())
	require.Len(t, report.Routes[0].Discrepancies, 1)
	assert.Equal(t, models.KindRouteNotFound, report.Routes[0].Discrepancies[0].Kind)
	assert.Empty(t, report.Routes[0].Discrepancies[0].Method)
}

func TestReconcileMethodMissingOnOneSide(t *testing.T) {
	reference := &models.Document{
		Routes: []string{"/orders"},
		Paths: map[string]models.PathItem{
			"/orders": {Operations: map[string]*models.OperationDocument{
				models.MethodPost: {
					Parameters: []models.Parameter{{Name: "X-Idempotency-Key", In: "header"}},
					Responses: map[string]models.Response{
						"200": {Content: map[string]models.MediaType{
							"application/json": {Schema: map[string]any{"type": "object"}},
						}},
					},
					Security: []models.SecurityRequirement{{"oauth2"}},
				},
			}},
		},
	}
	candidate := &models.Document{
		Routes: []string{"/orders"},
		Paths:  map[string]models.PathItem{"/orders": {}},
	}

	report := Reconcile(reference, candidate)

	assert.Equal(t, []string{
		"Mismatch in query parameters: X-Idempotency-Key",
		"Mismatch in response body",
		"Mismatch in allowed headers: X-Idempotency-Key",
		"Mismatch in authentication methods: oauth2",
	}, report.Messages()["/orders"])

	// the other direction only differs in the response body
	reverse := Reconcile(candidate, reference)
	assert.Equal(t, map[string][]string{"/orders": {"Mismatch in response body"}}, reverse.Messages())
}

func TestReconcileConcatenatesMethodsInOrder(t *testing.T) {
	op := func(param string) *models.OperationDocument {
		return &models.OperationDocument{Parameters: []models.Parameter{{Name: param, In: "query"}}}
	}
	reference := &models.Document{
		Routes: []string{"/things"},
		Paths: map[string]models.PathItem{
			"/things": {Operations: map[string]*models.OperationDocument{
				models.MethodDelete: op("force"),
				models.MethodGet:    op("limit"),
				models.MethodPatch:  op("ignored"),
			}},
		},
	}
	candidate := &models.Document{
		Routes: []string{"/things"},
		Paths:  map[string]models.PathItem{"/things": {}},
	}

	report := Reconcile(reference, candidate)

	require.Len(t, report.Routes, 1)
	discrepancies := report.Routes[0].Discrepancies
	require.Len(t, discrepancies, 2)
	assert.Equal(t, models.MethodGet, discrepancies[0].Method)
	assert.Equal(t, models.MethodDelete, discrepancies[1].Method)
}

func TestReconcileKeepsReferenceRouteOrder(t *testing.T) {
	reference := &models.Document{
		Routes: []string{"/b", "/a", "/c"},
		Paths:  map[string]models.PathItem{"/b": {}, "/a": {}, "/c": {}},
	}
	candidate := &models.Document{Paths: map[string]models.PathItem{"/a": {}}}

	report := Reconcile(reference, candidate)

	routes := []string{}
	for _, r := range report.Routes {
		routes = append(routes, r.Route)
	}
	assert.Equal(t, []string{"/b", "/c"}, routes)
}

func TestReconcileFilters(t *testing.T) {
	reference := &models.Document{
		Routes: []string{"/pets", "/users", "/admin/stats"},
		Paths: map[string]models.PathItem{
			"/pets": {Operations: map[string]*models.OperationDocument{
				models.MethodGet: {OperationID: "listPets", Tags: []string{"pets"}},
			}},
			"/users": {Operations: map[string]*models.OperationDocument{
				models.MethodGet: {OperationID: "listUsers", Tags: []string{"users"}},
			}},
			"/admin/stats": {Operations: map[string]*models.OperationDocument{
				models.MethodGet:   {OperationID: "stats"},
				models.MethodPatch: {Tags: []string{"users"}},
			}},
		},
	}
	candidate := &models.Document{}

	routes := func(report models.CandidateReport) []string {
		out := []string{}
		for _, r := range report.Routes {
			out = append(out, r.Route)
		}
		return out
	}

	assert.Equal(t, []string{"/pets", "/users", "/admin/stats"}, routes(Reconcile(reference, candidate)))
	assert.Equal(t, []string{"/users"}, routes(Reconcile(reference, candidate, WithFilter("users"))))
	assert.Equal(t, []string{"/pets"}, routes(Reconcile(reference, candidate, WithFilter("listPets"))))
	// tags on methods that are not compared do not select a route
	assert.Equal(t, []string{"/users"}, routes(Reconcile(reference, candidate, WithTags("users"))))
	assert.Empty(t, routes(Reconcile(reference, candidate, WithFilter("pets"), WithTags("users"))))
}

func TestReconcilePetStoreAgainstItself(t *testing.T) {
	doc, err := parser.ParseFile("../parser/testdata/pet-store.json")
	require.NoError(t, err)

	assert.Empty(t, Reconcile(doc, doc).Routes)
}
