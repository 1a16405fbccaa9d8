package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/vigireport/internal/model"
)

// DetailFetcher fetches one page of terms for a category. A nil slice
// signals that the response carried no term list.
type DetailFetcher interface {
	DetailPage(ctx context.Context, drugID, socID string, page int) ([]model.Detail, error)
}

// Translator de-obfuscates a label.
type Translator interface {
	Translate(text string) string
}

// Collector drains category pages sequentially.
type Collector struct {
	fetcher    DetailFetcher
	translator Translator
	logger     *slog.Logger
	maxPages   int
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithMaxPages stops a category after n pages with ErrPageLimit.
// Zero, the default, means no limit.
func WithMaxPages(n int) Option {
	return func(c *Collector) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// New returns a Collector.
func New(fetcher DetailFetcher, translator Translator, opts ...Option) *Collector {
	c := &Collector{
		fetcher:    fetcher,
		translator: translator,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// CollectCategory returns the category line followed by a line for every
// term on every page of the category.
func (c *Collector) CollectCategory(ctx context.Context, drugID string, category model.Category) ([]model.Line, error) {
	head := model.Line{
		Text:  c.translator.Translate(category.Description),
		Count: category.Count,
		Depth: model.DepthCategory,
	}
	c.logger.Info("output group", "text", head.Text, "count", head.Count)

	details, err := c.CollectDetails(ctx, drugID, category.SocID)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", head.Text, err)
	}
	return append([]model.Line{head}, details...), nil
}

// CollectDetails fetches pages 0, 1, ... of a category until a page has
// no terms and returns one line per term.
func (c *Collector) CollectDetails(ctx context.Context, drugID, socID string) ([]model.Line, error) {
	var lines []model.Line
	for page := 0; ; page++ {
		if c.maxPages > 0 && page >= c.maxPages {
			return lines, fmt.Errorf("%w: %d pages", ErrPageLimit, c.maxPages)
		}

		details, err := c.fetcher.DetailPage(ctx, drugID, socID, page)
		if err != nil {
			return lines, fmt.Errorf("page %d: %w", page, err)
		}
		if len(details) == 0 {
			c.logger.Debug("category exhausted", "soc_id", socID, "pages", page)
			return lines, nil
		}

		for _, d := range details {
			line := model.Line{
				Text:  c.translator.Translate(d.Description),
				Count: d.Count,
				Depth: model.DepthDetail,
			}
			c.logger.Info("output detail", "text", line.Text, "count", line.Count)
			lines = append(lines, line)
		}
	}
}
