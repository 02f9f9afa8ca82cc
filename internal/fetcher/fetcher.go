// Package fetcher retrieves OpenAPI documents from HTTP locations or the
// local file system.
package fetcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/moamenhredeen/specdrift/internal/models"
	"github.com/moamenhredeen/specdrift/internal/parser"
)

// UserAgent is sent with every HTTP fetch
const UserAgent = "specdrift/1.0"

// Config holds fetch configuration
type Config struct {
	SpecPath    string              // Joined onto every location when set, e.g. main/openapi.json
	Timeout     time.Duration       // Per-request timeout
	Retries     int                 // Retries on transport errors
	RateLimit   float64             // Max fetches per second (0 = unlimited)
	Credentials *models.Credentials // Used by sources without their own credentials
}

// DefaultConfig returns default fetch configuration
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// ClientFunc customizes the underlying HTTP client
type ClientFunc func(*resty.Client)

// Fetcher retrieves and parses OpenAPI documents
type Fetcher struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
	parser  *parser.Parser
	logger  *zap.Logger
}

// New creates a fetcher
func New(config Config, logger *zap.Logger, cfs ...ClientFunc) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.Retries).
		SetHeader("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8").
		SetHeader("User-Agent", UserAgent)
	for _, cf := range cfs {
		cf(client)
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(1, int(config.RateLimit)))
	}

	return &Fetcher{
		config:  config,
		client:  client,
		limiter: limiter,
		parser:  parser.New(logger),
		logger:  logger,
	}
}

// Resolve returns the location actually fetched for a source location
func (f *Fetcher) Resolve(location string) string {
	if f.config.SpecPath == "" {
		return location
	}
	if isRemote(location) {
		return strings.TrimRight(location, "/") + "/" + strings.TrimLeft(f.config.SpecPath, "/")
	}
	return filepath.Join(location, f.config.SpecPath)
}

// Fetch retrieves and parses the document of source
func (f *Fetcher) Fetch(ctx context.Context, source models.Source) (*models.Document, error) {
	location := f.Resolve(source.Location)
	logger := f.logger.With(zap.String("location", location))

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	start := time.Now()
	logger.Debug("fetching specification")

	var (
		doc *models.Document
		err error
	)
	if isRemote(location) {
		doc, err = f.fetchRemote(ctx, location, f.credentials(source))
	} else {
		doc, err = f.parser.ParseFile(strings.TrimPrefix(location, "file://"))
	}
	if err != nil {
		logger.Warn("failed to fetch specification", zap.Error(err))
		return nil, err
	}

	// keep the location the user configured, not the resolved one
	doc.Location = source.Location
	logger.Debug("fetched specification",
		zap.Int("routes", len(doc.Routes)),
		zap.Duration("duration", time.Since(start)))
	return doc, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string, credentials *models.Credentials) (*models.Document, error) {
	r := f.client.R().SetContext(ctx)
	if !credentials.Empty() {
		if credentials.Token != "" {
			r.SetAuthToken(credentials.Token)
		} else {
			r.SetBasicAuth(credentials.Username, credentials.Password)
		}
	}

	res, err := r.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if res.IsError() {
		return nil, &Error{URL: url, Code: res.StatusCode(), Status: res.Status(), Detail: res.Body()}
	}

	return f.parser.ParseBytes(url, res.Body())
}

func (f *Fetcher) credentials(source models.Source) *models.Credentials {
	if !source.Credentials.Empty() {
		return source.Credentials
	}
	return f.config.Credentials
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
