package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryAddResult(t *testing.T) {
	var summary Summary

	summary.AddResult(CandidateReport{Location: "clean"})
	summary.AddResult(CandidateReport{
		Location: "drifted",
		Routes: []RouteReport{
			{Route: "/a", Discrepancies: []Discrepancy{RouteNotFound()}},
			{Route: "/b", Discrepancies: []Discrepancy{
				{Kind: KindQueryParameters, Message: "Mismatch in query parameters: x"},
				{Kind: KindResponseBody, Message: "Mismatch in response body"},
			}},
		},
	})
	failed := CandidateReport{Location: "failed"}
	failed.SetError(errors.New("connection refused"))
	summary.AddResult(failed)
	summary.Finalize(2 * time.Second)

	assert.Equal(t, 3, summary.TotalCandidates)
	assert.Equal(t, 1, summary.Clean)
	assert.Equal(t, 1, summary.Drifted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.TotalDiscrepancies)
	assert.Equal(t, 2*time.Second, summary.TotalDuration)

	err := summary.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed: connection refused")
}

func TestSummaryErrNilWhenNothingFailed(t *testing.T) {
	var summary Summary
	summary.AddResult(CandidateReport{Location: "clean"})

	assert.NoError(t, summary.Err())
}

func TestCandidateReportMessages(t *testing.T) {
	report := CandidateReport{Routes: []RouteReport{
		{Route: "/users", Discrepancies: []Discrepancy{RouteNotFound()}},
	}}

	assert.Equal(t, map[string][]string{"/users": {"Route not found in repository"}}, report.Messages())
	assert.Empty(t, CandidateReport{}.Messages())
}

func TestOperationDocumentLookups(t *testing.T) {
	var op *OperationDocument
	_, ok := op.Response("200")
	assert.False(t, ok)

	var doc *Document
	_, ok = doc.PathItem("/users")
	assert.False(t, ok)

	assert.Nil(t, PathItem{}.Operation(MethodGet))
	assert.True(t, (*Credentials)(nil).Empty())
	assert.False(t, (&Credentials{Token: "t"}).Empty())
}
