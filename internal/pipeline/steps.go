package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/vigireport/internal/collector"
	"github.com/nao1215/vigireport/internal/model"
	"github.com/nao1215/vigireport/internal/translit"
)

// ErrNoSummary is returned by steps that need the aggregate response when
// the distribution step has not run.
var ErrNoSummary = errors.New("distribution summary not available")

// Service is the remote VigiAccess API as seen by the pipeline.
type Service interface {
	SearchDrug(ctx context.Context, term string) (string, error)
	Distribution(ctx context.Context, drugID string) (*model.Summary, error)
	collector.DetailFetcher
}

// SearchStep resolves the report's search term to an encrypted drug id.
type SearchStep struct {
	service Service
	logger  *slog.Logger
}

// NewSearchStep creates a SearchStep.
func NewSearchStep(service Service, logger *slog.Logger) *SearchStep {
	return &SearchStep{service: service, logger: logger}
}

// Name returns the step name.
func (s *SearchStep) Name() string {
	return "search"
}

// Do executes the search.
func (s *SearchStep) Do(ctx context.Context, report *model.Report) error {
	s.logger.Info("loading drug search results", "term", report.SearchTerm)
	id, err := s.service.SearchDrug(ctx, report.SearchTerm)
	if err != nil {
		return err
	}
	report.DrugID = id
	s.logger.Info("taking first encrypted drug id", "drug_id", id)
	return nil
}

// DistributionStep fetches the aggregate statistics.
type DistributionStep struct {
	service Service
	logger  *slog.Logger
}

// NewDistributionStep creates a DistributionStep.
func NewDistributionStep(service Service, logger *slog.Logger) *DistributionStep {
	return &DistributionStep{service: service, logger: logger}
}

// Name returns the step name.
func (s *DistributionStep) Name() string {
	return "distribution"
}

// Do fetches the summary and stores it on the report.
func (s *DistributionStep) Do(ctx context.Context, report *model.Report) error {
	summary, err := s.service.Distribution(ctx, report.DrugID)
	if err != nil {
		return err
	}
	report.Summary = summary
	report.TotalCount = summary.TotalCount
	s.logger.Info("distribution fetched",
		"total_count", summary.TotalCount,
		"categories", len(summary.Reactions),
	)
	return nil
}

// ReactionsStep drains every reaction category, one after the other.
type ReactionsStep struct {
	collector *collector.Collector
	logger    *slog.Logger
}

// NewReactionsStep creates a ReactionsStep.
func NewReactionsStep(c *collector.Collector, logger *slog.Logger) *ReactionsStep {
	return &ReactionsStep{collector: c, logger: logger}
}

// Name returns the step name.
func (s *ReactionsStep) Name() string {
	return "reactions"
}

// Do appends the reaction tree to the report.
func (s *ReactionsStep) Do(ctx context.Context, report *model.Report) error {
	if report.Summary == nil {
		return ErrNoSummary
	}
	for i, category := range report.Summary.Reactions {
		lines, err := s.collector.CollectCategory(ctx, report.DrugID, category)
		if err != nil {
			return err
		}
		report.AddLines(lines...)
		s.logger.Debug("category collected",
			"index", i+1,
			"total", len(report.Summary.Reactions),
			"lines", len(lines),
		)
	}
	return nil
}

// DistributionsStep computes the four side distribution tables.
type DistributionsStep struct {
	translator collector.Translator
	logger     *slog.Logger
}

// NewDistributionsStep creates a DistributionsStep.
func NewDistributionsStep(translator collector.Translator, logger *slog.Logger) *DistributionsStep {
	return &DistributionsStep{translator: translator, logger: logger}
}

// Name returns the step name.
func (s *DistributionsStep) Name() string {
	return "distributions"
}

// Do appends the tables in the order the site shows them. A table whose
// counts sum to zero is kept with n/a percentages.
func (s *DistributionsStep) Do(_ context.Context, report *model.Report) error {
	if report.Summary == nil {
		return ErrNoSummary
	}
	blocks := []struct {
		title   string
		column  string
		records []model.Record
	}{
		{"Geographical distribution", "Continent", report.Summary.Continent},
		{"Age group distribution", "Age group", report.Summary.AgeGroup},
		{"Patient sex distribution", "Sex", report.Summary.Sex},
		{"ADR reports per year", "Year", report.Summary.Year},
	}

	for _, b := range blocks {
		dist, err := collector.Distribute(b.title, b.column, b.records, s.translator)
		if errors.Is(err, collector.ErrZeroTotal) {
			s.logger.Warn("distribution total is zero, percentages unavailable", "title", b.title)
		} else if err != nil {
			return err
		}
		report.Distributions = append(report.Distributions, dist)
	}
	return nil
}

// LedgerSource exposes the unknown characters collected during a run.
type LedgerSource interface {
	Entries() []translit.LedgerEntry
}

// LedgerStep attaches the unknown character ledger to the report.
type LedgerStep struct {
	ledger LedgerSource
	logger *slog.Logger
}

// NewLedgerStep creates a LedgerStep.
func NewLedgerStep(ledger LedgerSource, logger *slog.Logger) *LedgerStep {
	return &LedgerStep{ledger: ledger, logger: logger}
}

// Name returns the step name.
func (s *LedgerStep) Name() string {
	return "ledger"
}

// Do copies the ledger entries into the report and logs them.
func (s *LedgerStep) Do(_ context.Context, report *model.Report) error {
	entries := s.ledger.Entries()
	report.Unknown = make([]model.UnknownChar, 0, len(entries))
	for _, e := range entries {
		u := model.UnknownChar{
			CodePoint:   int(e.CodePoint),
			Char:        e.Char,
			Name:        e.Name,
			Hint:        e.Hint,
			Occurrences: e.Occurrences,
			FirstSeenIn: e.FirstSeenIn,
		}
		report.Unknown = append(report.Unknown, u)
		s.logger.Info("unknown character sample",
			"code_point", u.CodePoint,
			"diagnostic", u.Diagnostic(),
			"hint", u.Hint,
			"occurrences", u.Occurrences,
		)
	}
	if len(entries) > 0 {
		s.logger.Warn("unknown characters found; consider extending the mapping table", "count", len(entries))
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages limits the pages fetched per category. Zero means no limit.
	MaxPages int
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxPages sets the per-category page limit.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// DefaultPipeline creates the standard run: search, distribution,
// reactions, distributions, ledger.
func DefaultPipeline(service Service, translator *translit.Translator, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	c := collector.New(service, translator,
		collector.WithLogger(p.logger),
		collector.WithMaxPages(cfg.MaxPages),
	)

	p.AddSteps(
		NewSearchStep(service, p.logger),
		NewDistributionStep(service, p.logger),
		NewReactionsStep(c, p.logger),
		NewDistributionsStep(translator, p.logger),
		NewLedgerStep(translator, p.logger),
	)
	return p
}
