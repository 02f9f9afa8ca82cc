// Package reconciler walks the routes of a reference document and compares
// them against one or many candidate documents.
package reconciler

import (
	"strings"

	"github.com/samber/lo"

	"github.com/moamenhredeen/specdrift/internal/comparator"
	"github.com/moamenhredeen/specdrift/internal/models"
	"github.com/moamenhredeen/specdrift/internal/projector"
)

// ComparedMethods are the only methods examined on a route, in report order
var ComparedMethods = []string{
	models.MethodGet,
	models.MethodPost,
	models.MethodPut,
	models.MethodDelete,
}

type options struct {
	filter string
	tags   []string
}

// Option restricts which reference routes are reconciled
type Option func(*options)

// WithFilter keeps routes whose path, or the operation ID of one of their
// compared reference operations, contains substr
func WithFilter(substr string) Option {
	return func(o *options) {
		o.filter = substr
	}
}

// WithTags keeps routes where a compared reference operation carries one of
// the tags
func WithTags(tags ...string) Option {
	return func(o *options) {
		o.tags = append(o.tags, tags...)
	}
}

// Reconcile compares every route of reference against candidate. Routes
// without discrepancies are left out of the report.
func Reconcile(reference, candidate *models.Document, opts ...Option) models.CandidateReport {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	report := models.CandidateReport{Routes: []models.RouteReport{}}
	if candidate != nil {
		report.Location = candidate.Location
		report.Title = candidate.Title
		report.Version = candidate.Version
	}
	if reference == nil {
		return report
	}

	for _, route := range reference.Routes {
		referenceItem, _ := reference.PathItem(route)
		if !o.matches(route, referenceItem) {
			continue
		}

		candidateItem, ok := candidate.PathItem(route)
		if !ok {
			report.Routes = append(report.Routes, models.RouteReport{
				Route:         route,
				Discrepancies: []models.Discrepancy{models.RouteNotFound()},
			})
			continue
		}

		if discrepancies := ReconcileRoute(referenceItem, candidateItem); len(discrepancies) > 0 {
			report.Routes = append(report.Routes, models.RouteReport{
				Route:         route,
				Discrepancies: discrepancies,
			})
		}
	}

	return report
}

// ReconcileRoute compares the compared methods of two path items. A method
// missing on either side is compared as an operation with no fields.
func ReconcileRoute(reference, candidate models.PathItem) []models.Discrepancy {
	var discrepancies []models.Discrepancy
	for _, method := range ComparedMethods {
		found := comparator.Compare(
			projector.Project(reference.Operation(method)),
			projector.Project(candidate.Operation(method)),
		)
		for _, d := range found {
			d.Method = method
			discrepancies = append(discrepancies, d)
		}
	}
	return discrepancies
}

func (o *options) matches(route string, item models.PathItem) bool {
	ops := lo.FilterMap(ComparedMethods, func(method string, _ int) (*models.OperationDocument, bool) {
		op := item.Operation(method)
		return op, op != nil
	})

	if o.filter != "" && !strings.Contains(route, o.filter) {
		matched := lo.ContainsBy(ops, func(op *models.OperationDocument) bool {
			return op.OperationID != "" && strings.Contains(op.OperationID, o.filter)
		})
		if !matched {
			return false
		}
	}

	if len(o.tags) > 0 {
		return lo.ContainsBy(ops, func(op *models.OperationDocument) bool {
			return len(lo.Intersect(op.Tags, o.tags)) > 0
		})
	}

	return true
}
