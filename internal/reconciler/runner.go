package reconciler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moamenhredeen/specdrift/internal/models"
)

// EventType represents the type of run event
type EventType int

const (
	// EventFetchStarting indicates a candidate is about to be fetched
	EventFetchStarting EventType = iota
	// EventCandidateCompleted indicates a candidate was reconciled
	EventCandidateCompleted
	// EventCandidateFailed indicates a candidate could not be fetched
	EventCandidateFailed
)

// Event represents an event during a run
type Event struct {
	Type   EventType
	Source models.Source
	Report *models.CandidateReport // nil for Starting events
	Index  int                     // candidate index (0-based)
	Total  int                     // total number of candidates
}

// OnEvent is called for run events. Candidates are processed concurrently,
// so it may be called from several goroutines at once.
type OnEvent func(event Event)

// Fetcher retrieves a parsed document
type Fetcher interface {
	Fetch(ctx context.Context, source models.Source) (*models.Document, error)
}

// Config holds runner configuration
type Config struct {
	Concurrency int      // Candidates fetched in parallel
	Filter      string   // See WithFilter
	Tags        []string // See WithTags
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
	}
}

// Runner compares one reference document against many candidates
type Runner struct {
	fetcher Fetcher
	config  Config
	logger  *zap.Logger
}

// NewRunner creates a runner
func NewRunner(fetcher Fetcher, config Config, logger *zap.Logger) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
	}
}

// Run fetches the reference and reconciles every candidate against it.
//
// An error is only returned when the reference itself cannot be fetched. A
// failing candidate is recorded on its report and does not affect the
// others. Reports keep the order of candidates.
func (r *Runner) Run(ctx context.Context, reference models.Source, candidates []models.Source, onEvent OnEvent) (models.Summary, error) {
	summary := models.Summary{
		Reference:  reference.Location,
		Candidates: make([]models.CandidateReport, 0, len(candidates)),
	}
	startTime := time.Now()

	referenceDoc, err := r.fetcher.Fetch(ctx, reference)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch reference %s: %w", reference.Location, err)
	}
	r.logger.Info("reference loaded",
		zap.String("location", reference.Location),
		zap.Int("routes", len(referenceDoc.Routes)))

	reports := make([]models.CandidateReport, len(candidates))
	total := len(candidates)

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			reports[i] = failedReport(candidate, err)
			continue
		}
		i, candidate := i, candidate
		g.Go(func() error {
			reports[i] = r.runCandidate(ctx, referenceDoc, candidate, i, total, onEvent)
			return nil
		})
	}
	_ = g.Wait()

	for _, report := range reports {
		summary.AddResult(report)
	}
	summary.Finalize(time.Since(startTime))
	return summary, nil
}

func (r *Runner) runCandidate(
	ctx context.Context,
	reference *models.Document,
	candidate models.Source,
	index, total int,
	onEvent OnEvent,
) models.CandidateReport {
	if onEvent != nil {
		onEvent(Event{Type: EventFetchStarting, Source: candidate, Index: index, Total: total})
	}

	startTime := time.Now()
	logger := r.logger.With(zap.String("candidate", candidate.Location))

	var report models.CandidateReport
	doc, err := r.fetcher.Fetch(ctx, candidate)
	if err != nil {
		logger.Error("candidate skipped", zap.Error(err))
		report = failedReport(candidate, err)
	} else {
		report = Reconcile(reference, doc, WithFilter(r.config.Filter), WithTags(r.config.Tags...))
		logger.Info("candidate reconciled",
			zap.Int("drifted_routes", len(report.Routes)),
			zap.Int("discrepancies", report.DiscrepancyCount()))
	}
	report.Location = candidate.Location
	report.Duration = time.Since(startTime)

	if onEvent != nil {
		eventType := EventCandidateCompleted
		if report.Failed() {
			eventType = EventCandidateFailed
		}
		onEvent(Event{Type: eventType, Source: candidate, Report: &report, Index: index, Total: total})
	}
	return report
}

func failedReport(candidate models.Source, err error) models.CandidateReport {
	report := models.CandidateReport{
		Location: candidate.Location,
		Routes:   []models.RouteReport{},
	}
	report.SetError(err)
	return report
}
