// Package comparator computes the discrepancies between a reference route
// specification and a candidate one.
package comparator

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/samber/lo"

	"github.com/moamenhredeen/specdrift/internal/models"
)

const responseBodyMessage = "Mismatch in response body"

// nil and empty containers are the same schema
var schemaOptions = []cmp.Option{cmpopts.EquateEmpty()}

// Compare runs every check, in a fixed order, and returns what it found.
// Only elements the reference has and the candidate lacks are reported;
// extra candidate parameters, headers or schemes are accepted.
func Compare(reference, candidate models.RouteSpecification) []models.Discrepancy {
	var discrepancies []models.Discrepancy

	if d, ok := missing(models.KindQueryParameters, "query parameters",
		reference.QueryParameters, candidate.QueryParameters); ok {
		discrepancies = append(discrepancies, d)
	}

	if d, ok := compareResponseBody(reference.ResponseBody, candidate.ResponseBody); ok {
		discrepancies = append(discrepancies, d)
	}

	if d, ok := missing(models.KindAllowedHeaders, "allowed headers",
		reference.AllowedHeaders, candidate.AllowedHeaders); ok {
		discrepancies = append(discrepancies, d)
	}

	// requirement groups are flattened: only the scheme names matter
	if d, ok := missing(models.KindAuthenticationMethods, "authentication methods",
		schemeNames(reference.AuthenticationMethods), schemeNames(candidate.AuthenticationMethods)); ok {
		discrepancies = append(discrepancies, d)
	}

	return discrepancies
}

// missing is the set difference reference minus candidate, in reference
// order. Duplicate names count once.
func missing(kind models.DiscrepancyKind, label string, reference, candidate []string) (models.Discrepancy, bool) {
	absent, _ := lo.Difference(reference, candidate)
	absent = lo.Uniq(absent)
	if len(absent) == 0 {
		return models.Discrepancy{}, false
	}
	return models.Discrepancy{
		Kind:    kind,
		Missing: absent,
		Message: fmt.Sprintf("Mismatch in %s: %s", label, strings.Join(absent, ", ")),
	}, true
}

func compareResponseBody(reference, candidate map[string]any) (models.Discrepancy, bool) {
	if cmp.Equal(reference, candidate, schemaOptions...) {
		return models.Discrepancy{}, false
	}
	return models.Discrepancy{
		Kind:    models.KindResponseBody,
		Message: responseBodyMessage,
		Detail:  cmp.Diff(reference, candidate, schemaOptions...),
	}, true
}

func schemeNames(requirements [][]string) []string {
	return lo.Flatten(requirements)
}
