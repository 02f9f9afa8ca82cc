/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moamenhredeen/specdrift/internal/fetcher"
)

func TestFailureHint(t *testing.T) {
	for _, test := range []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "unauthorized",
			err:      fmt.Errorf("candidate: %w", &fetcher.Error{Code: http.StatusUnauthorized}),
			contains: "--token",
		},
		{
			name:     "forbidden",
			err:      &fetcher.Error{Code: http.StatusForbidden},
			contains: "--token",
		},
		{
			name:     "not found",
			err:      &fetcher.Error{Code: http.StatusNotFound},
			contains: "--spec-path",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Contains(t, failureHint(test.err), test.contains)
		})
	}

	assert.Empty(t, failureHint(errors.New("connection refused")))
	assert.Empty(t, failureHint(nil))
}
