/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/moamenhredeen/specdrift/internal/fetcher"
	"github.com/moamenhredeen/specdrift/internal/models"
)

var (
	isTTY = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	// Color helpers
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	white  = color.New(color.FgWhite, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func displaySummary(summary models.Summary, verbose bool) {
	fmt.Println()
	fmt.Printf("%s\n", white("=== Comparison Results ==="))
	fmt.Printf("Reference: %s\n", summary.Reference)
	fmt.Println()

	for _, c := range summary.Candidates {
		displayCandidate(c, verbose)
	}

	fmt.Printf("%s\n", white("=== Summary ==="))
	fmt.Printf("Candidates:    %d\n", summary.TotalCandidates)
	fmt.Printf("Clean:         %s\n", green(summary.Clean))
	if summary.Drifted > 0 {
		fmt.Printf("Drifted:       %s\n", yellow(summary.Drifted))
	} else {
		fmt.Printf("Drifted:       %d\n", summary.Drifted)
	}
	if summary.Failed > 0 {
		fmt.Printf("Failed:        %s\n", red(summary.Failed))
	} else {
		fmt.Printf("Failed:        %d\n", summary.Failed)
	}
	fmt.Printf("Discrepancies: %d\n", summary.TotalDiscrepancies)
	fmt.Printf("Duration:      %v\n", summary.TotalDuration.Round(time.Millisecond))
}

func displayCandidate(c models.CandidateReport, verbose bool) {
	switch {
	case c.Failed():
		fmt.Printf("%s %s\n", red("✗"), c.Location)
		fmt.Printf("    Error: %s\n", red(c.Error))
		if hint := failureHint(c.Err()); hint != "" {
			fmt.Printf("    %s\n", faint(hint))
		}
		fmt.Println()
		return
	case !c.HasDiscrepancies():
		fmt.Printf("%s %s\n", green("✓"), c.Location)
		if verbose {
			fmt.Printf("    %s\n", faint(describe(c)))
		}
		fmt.Println()
		return
	}

	fmt.Printf("%s %s (%d discrepancies)\n", yellow("●"), c.Location, c.DiscrepancyCount())
	if verbose {
		fmt.Printf("    %s\n", faint(describe(c)))
	}

	for _, route := range c.Routes {
		fmt.Printf("  %s\n", cyan(route.Route))
		for _, d := range route.Discrepancies {
			method := ""
			if d.Method != "" {
				method = fmt.Sprintf("%-7s ", strings.ToUpper(d.Method))
			}
			fmt.Printf("    %s %s%s\n", yellow("→"), method, d.Message)

			if verbose && d.Detail != "" {
				for _, line := range strings.Split(strings.TrimRight(d.Detail, "\n"), "\n") {
					fmt.Printf("        %s\n", faint(line))
				}
			}
		}
	}
	fmt.Println()
}

// failureHint suggests a fix for fetch failures the user can act on
func failureHint(err error) string {
	switch {
	case fetcher.IsUnauthorized(err):
		return "Hint: check --token or --username/--password, or the [auth] tables of the config file"
	case fetcher.IsNotFound(err):
		return "Hint: check the location and --spec-path"
	}
	return ""
}

func describe(c models.CandidateReport) string {
	parts := []string{}
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Version != "" {
		parts = append(parts, "v"+c.Version)
	}
	parts = append(parts, fmt.Sprintf("compared in %v", c.Duration.Round(time.Millisecond)))
	return strings.Join(parts, " | ")
}
