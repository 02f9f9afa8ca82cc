package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moamenhredeen/specdrift/internal/models"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ExportSummary exports comparison results to the specified format
func ExportSummary(summary models.Summary, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	return WriteSummary(w, summary, format)
}

// WriteSummary writes comparison results to w
func WriteSummary(w io.Writer, summary models.Summary, format Format) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, summary)
	case FormatCSV:
		return exportCSV(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// getWriter returns an io.Writer for output (stdout or file)
func getWriter(filePath string) (io.Writer, io.Closer, error) {
	if filePath == "" {
		return os.Stdout, nil, nil
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

func exportJSON(w io.Writer, summary models.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// exportCSV writes one row per discrepancy, and one row per failed candidate
func exportCSV(w io.Writer, summary models.Summary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"candidate", "route", "method", "kind", "missing", "message", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, c := range summary.Candidates {
		if c.Failed() {
			if err := cw.Write([]string{c.Location, "", "", "", "", "", c.Error}); err != nil {
				return err
			}
			continue
		}

		for _, route := range c.Routes {
			for _, d := range route.Discrepancies {
				row := []string{
					c.Location,
					route.Route,
					d.Method,
					string(d.Kind),
					strings.Join(d.Missing, ";"),
					d.Message,
					"",
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json' or 'csv'", s)
	}
}
