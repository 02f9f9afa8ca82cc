/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moamenhredeen/specdrift/internal/fetcher"
	"github.com/moamenhredeen/specdrift/internal/models"
	"github.com/moamenhredeen/specdrift/internal/output"
	"github.com/moamenhredeen/specdrift/internal/reconciler"
)

var (
	filter     string
	tags       []string
	outFormat  string
	outputFile string
)

// candidateConfig is one [[candidate]] table of the config file
type candidateConfig struct {
	Location string              `mapstructure:"location"`
	Auth     *models.Credentials `mapstructure:"auth"`
}

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare [reference] [candidate...]",
	Short: "Compare candidate specifications against a reference",
	Long: `Compare the routes of a reference OpenAPI specification against one or more
candidate specifications.

Locations are URLs or local files. With --spec-path the path is appended to
every location, which allows pointing at repositories instead of files.
Reference and candidates can also be set in config.toml.

Examples:
  # Compare two local files
  specdrift compare reference.yaml service.yaml

  # Compare raw GitHub repositories on their main branch
  specdrift compare https://raw.githubusercontent.com/org/api \
    https://raw.githubusercontent.com/org/service-a \
    https://raw.githubusercontent.com/org/service-b \
    --spec-path main/openapi.json --token $GITHUB_TOKEN

  # Only routes tagged "users", exported as CSV
  specdrift compare ref.json svc.json --tags users -o csv --output-file drift.csv`,
	Args: cobra.ArbitraryArgs,
	Run:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) {
	reference, candidates, err := resolveSources(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var format output.Format
	if outFormat != "" {
		format, err = output.ParseFormat(outFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	f := fetcher.New(fetcher.Config{
		SpecPath:    viper.GetString("spec_path"),
		Timeout:     time.Duration(viper.GetInt("fetch.timeout")) * time.Second,
		Retries:     viper.GetInt("fetch.retries"),
		RateLimit:   viper.GetFloat64("fetch.rate"),
		Credentials: defaultCredentials(),
	}, logger)

	runner := reconciler.NewRunner(f, reconciler.Config{
		Concurrency: viper.GetInt("fetch.concurrency"),
		Filter:      filter,
		Tags:        tags,
	}, logger)

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Comparing %d candidate(s) against %s\n", len(candidates), reference.Location)

	progress := newProgress()
	summary, err := runner.Run(ctx, reference, candidates, progress.onEvent)
	progress.stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Handle output format
	if format != "" {
		if err := output.ExportSummary(summary, format, outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting results: %v\n", err)
			os.Exit(1)
		}

		// If writing to file, still show summary
		if outputFile != "" {
			fmt.Printf("\nResults exported to: %s\n", outputFile)
			displaySummary(summary, verbose)
		}
	} else {
		displaySummary(summary, verbose)
	}

	if err := summary.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}

	// Exit with error code if any candidate drifted or failed
	if summary.Drifted > 0 || summary.Failed > 0 {
		os.Exit(1)
	}
}

// resolveSources takes the reference and candidates from the arguments,
// falling back to the config file
func resolveSources(args []string) (models.Source, []models.Source, error) {
	var reference models.Source
	var candidates []models.Source

	if len(args) > 0 {
		reference.Location = args[0]
		for _, location := range args[1:] {
			candidates = append(candidates, models.Source{Location: location})
		}
	} else {
		reference.Location = viper.GetString("reference")
	}

	if len(args) < 2 {
		for _, location := range viper.GetStringSlice("candidates") {
			candidates = append(candidates, models.Source{Location: location})
		}

		var tables []candidateConfig
		if err := viper.UnmarshalKey("candidate", &tables); err != nil {
			return reference, nil, fmt.Errorf("invalid [[candidate]] config: %w", err)
		}
		for _, c := range tables {
			candidates = append(candidates, models.Source{Location: c.Location, Credentials: c.Auth})
		}
	}

	if reference.Location == "" {
		return reference, nil, fmt.Errorf("no reference specification given")
	}
	if len(candidates) == 0 {
		return reference, nil, fmt.Errorf("no candidate specification given")
	}
	return reference, candidates, nil
}

func defaultCredentials() *models.Credentials {
	credentials := &models.Credentials{
		Token:    viper.GetString("auth.token"),
		Username: viper.GetString("auth.username"),
		Password: viper.GetString("auth.password"),
	}
	if credentials.Empty() {
		return nil
	}
	return credentials
}

// progress reports run events on stderr, with a spinner on terminals
type progress struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	done    int
}

func newProgress() *progress {
	p := &progress{}
	if isTTY {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		p.spinner.Suffix = " Fetching reference..."
		p.spinner.Start()
	}
	return p
}

func (p *progress) onEvent(event reconciler.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Type {
	case reconciler.EventFetchStarting:
		if p.spinner != nil {
			p.spinner.Lock()
			p.spinner.Suffix = fmt.Sprintf(" [%d/%d] Fetching %s", p.done, event.Total, event.Source.Location)
			p.spinner.Unlock()
		}

	case reconciler.EventCandidateCompleted, reconciler.EventCandidateFailed:
		p.done++
		if p.spinner != nil {
			p.spinner.Lock()
			p.spinner.Suffix = fmt.Sprintf(" [%d/%d] Compared %s", p.done, event.Total, event.Source.Location)
			p.spinner.Unlock()
			return
		}

		status := green("✓")
		detail := "no discrepancies"
		switch {
		case event.Report.Failed():
			status = red("✗")
			detail = event.Report.Error
		case event.Report.HasDiscrepancies():
			status = yellow("●")
			detail = fmt.Sprintf("%d discrepancies", event.Report.DiscrepancyCount())
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s %s - %s\n", p.done, event.Total, status, event.Source.Location, detail)
	}
}

func (p *progress) stop() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("spec-path", "", "Path appended to every location, e.g. main/openapi.json")
	compareCmd.Flags().String("token", "", "Bearer token used for HTTP locations")
	compareCmd.Flags().String("username", "", "Basic auth user name used for HTTP locations")
	compareCmd.Flags().String("password", "", "Basic auth password used for HTTP locations")
	compareCmd.Flags().IntP("timeout", "t", 30, "Fetch timeout in seconds")
	compareCmd.Flags().Int("retries", 0, "Retries on network errors")
	compareCmd.Flags().Float64P("rate", "r", 0, "Max fetches per second (0 = unlimited)")
	compareCmd.Flags().IntP("concurrency", "c", 4, "Number of candidates fetched in parallel")

	_ = viper.BindPFlag("spec_path", compareCmd.Flags().Lookup("spec-path"))
	_ = viper.BindPFlag("auth.token", compareCmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("auth.username", compareCmd.Flags().Lookup("username"))
	_ = viper.BindPFlag("auth.password", compareCmd.Flags().Lookup("password"))
	_ = viper.BindPFlag("fetch.timeout", compareCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("fetch.retries", compareCmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("fetch.rate", compareCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("fetch.concurrency", compareCmd.Flags().Lookup("concurrency"))

	compareCmd.Flags().StringVar(&filter, "filter", "", "Filter routes by path pattern or operation ID")
	compareCmd.Flags().StringSliceVar(&tags, "tags", []string{}, "Filter routes by OpenAPI tags (can be specified multiple times)")

	// Output flags
	compareCmd.Flags().StringVarP(&outFormat, "output", "o", "", "Output format: json, csv")
	compareCmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to file (default: stdout)")
}
