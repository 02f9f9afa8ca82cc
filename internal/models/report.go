package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DiscrepancyKind categorizes a detected mismatch
type DiscrepancyKind string

const (
	KindRouteNotFound         DiscrepancyKind = "route_not_found"
	KindQueryParameters       DiscrepancyKind = "query_parameters"
	KindResponseBody          DiscrepancyKind = "response_body"
	KindAllowedHeaders        DiscrepancyKind = "allowed_headers"
	KindAuthenticationMethods DiscrepancyKind = "authentication_methods"
)

// RouteNotFoundMessage is reported for a route the candidate does not define
const RouteNotFoundMessage = "Route not found in repository"

// Discrepancy describes one mismatch between a reference and a candidate
type Discrepancy struct {
	Method  string          `json:"method,omitempty"`
	Kind    DiscrepancyKind `json:"kind"`
	Missing []string        `json:"missing,omitempty"`
	Message string          `json:"message"`

	// Detail is a structural diff, only set for response bodies
	Detail string `json:"detail,omitempty"`
}

func (d Discrepancy) String() string {
	return d.Message
}

// RouteNotFound builds the sentinel discrepancy for a missing route
func RouteNotFound() Discrepancy {
	return Discrepancy{Kind: KindRouteNotFound, Message: RouteNotFoundMessage}
}

// RouteReport groups the discrepancies found on one route
type RouteReport struct {
	Route         string        `json:"route"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// Messages returns the human-readable discrepancy list of the route
func (r RouteReport) Messages() []string {
	messages := make([]string, 0, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		messages = append(messages, d.Message)
	}
	return messages
}

// CandidateReport is the result of reconciling one candidate document
type CandidateReport struct {
	Location string        `json:"location"`
	Title    string        `json:"title,omitempty"`
	Version  string        `json:"version,omitempty"`
	Routes   []RouteReport `json:"routes"`

	// Error is set when the candidate could not be fetched or parsed
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	err error
}

// Failed reports whether the candidate could not be compared
func (r CandidateReport) Failed() bool {
	return r.Error != ""
}

// HasDiscrepancies reports whether any route drifted
func (r CandidateReport) HasDiscrepancies() bool {
	return len(r.Routes) > 0
}

// DiscrepancyCount returns the number of discrepancies over all routes
func (r CandidateReport) DiscrepancyCount() int {
	n := 0
	for _, route := range r.Routes {
		n += len(route.Discrepancies)
	}
	return n
}

// Messages maps every drifted route to its ordered discrepancy messages.
// Routes without discrepancies have no entry.
func (r CandidateReport) Messages() map[string][]string {
	out := make(map[string][]string, len(r.Routes))
	for _, route := range r.Routes {
		out[route.Route] = route.Messages()
	}
	return out
}

// SetError marks the report as failed
func (r *CandidateReport) SetError(err error) {
	if err == nil {
		return
	}
	r.err = err
	r.Error = err.Error()
}

// Err returns the failure recorded with SetError
func (r CandidateReport) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.Error != "" {
		return errors.New(r.Error)
	}
	return nil
}

// Summary holds the reports of every candidate compared in one run
type Summary struct {
	Reference string `json:"reference"`

	TotalCandidates    int `json:"total_candidates"`
	Clean              int `json:"clean"`
	Drifted            int `json:"drifted"`
	Failed             int `json:"failed"`
	TotalDiscrepancies int `json:"total_discrepancies"`

	TotalDuration time.Duration `json:"total_duration_ns"`

	Candidates []CandidateReport `json:"candidates"`
}

// AddResult adds a candidate report to the summary and updates aggregates
func (s *Summary) AddResult(report CandidateReport) {
	s.Candidates = append(s.Candidates, report)
	s.TotalCandidates++

	switch {
	case report.Failed():
		s.Failed++
	case report.HasDiscrepancies():
		s.Drifted++
		s.TotalDiscrepancies += report.DiscrepancyCount()
	default:
		s.Clean++
	}
}

// Finalize records the wall time of the run
func (s *Summary) Finalize(totalDuration time.Duration) {
	s.TotalDuration = totalDuration
}

// Err combines the failures of all candidates, nil if none failed
func (s Summary) Err() error {
	var result *multierror.Error
	for _, c := range s.Candidates {
		if err := c.Err(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.Location, err))
		}
	}
	return result.ErrorOrNil()
}
