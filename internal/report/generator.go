package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"catreport/internal/chart"
	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/daterange"
	"catreport/internal/ledger"
	"catreport/internal/log"
)

// Options configure a Generator. Zero values pick the defaults.
type Options struct {
	Clock         daterange.Clock
	FinancialYear daterange.FinancialYear
	IgnoreFuture  bool
	// BaseCurrency overrides the ledger's base currency when set.
	BaseCurrency string
	DateFormat   string
	Logger       *log.Logger
}

// Generator turns definitions into rendered reports against a ledger.
type Generator struct {
	ledger       ledger.Ledger
	clock        daterange.Clock
	fy           daterange.FinancialYear
	ignoreFuture bool
	baseCurrency string
	dateFormat   string
	logger       *log.Logger
	structured   *log.StructuredLogger
}

// Output is one generated report.
type Output struct {
	Definition Definition
	Title      string
	Range      daterange.Range
	Today      core.Date
	Table      Table
	Currency   currency.Table
	// HTML links the chart by ChartName, relative to the page.
	HTML []byte
	// Chart is nil when the report has nothing to draw.
	Chart     []byte
	ChartName string

	dateFormat string
}

func NewGenerator(l ledger.Ledger, opts Options) *Generator {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.FinancialYear == (daterange.FinancialYear{}) {
		opts.FinancialYear = daterange.DefaultFinancialYear()
	}
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentReport)
	return &Generator{
		ledger:       l,
		clock:        opts.Clock,
		fy:           opts.FinancialYear,
		ignoreFuture: opts.IgnoreFuture,
		baseCurrency: opts.BaseCurrency,
		dateFormat:   opts.DateFormat,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
	}
}

// Today is the generator's current day.
func (g *Generator) Today() core.Date {
	return core.DateOf(g.clock())
}

// Generate resolves the definition's range, reads the ledger and renders the
// table, chart and HTML page.
func (g *Generator) Generate(ctx context.Context, def Definition) (*Output, error) {
	if !def.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, def.Kind)
	}
	r, err := daterange.Resolve(def.Preset, g.clock, g.fy)
	if err != nil {
		return nil, err
	}
	today := g.Today()
	rep := NewReport(def.Kind, r, def.Title())

	var (
		tree  core.CategoryTree
		stats core.CategoryStats
		table currency.Table
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		tree, err = g.ledger.Categories(egCtx)
		if err != nil {
			return fmt.Errorf("failed to read categories: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		stats, err = g.ledger.CategoryStats(egCtx, r.Query(g.ignoreFuture, today))
		if err != nil {
			return fmt.Errorf("failed to read category stats: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		table, err = g.ledger.Currencies(egCtx)
		if err != nil {
			return fmt.Errorf("failed to read currencies: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		g.structured.LogError(ctx, "Report generation failed", err, log.ComponentReport, log.OpGenerate,
			log.NewFields().WithReport(def.Kind.Slug(), def.Preset.String(), "", ""))
		return nil, err
	}

	if table, err = table.WithBase(g.baseCurrency); err != nil {
		return nil, err
	}

	out := &Output{
		Definition: def,
		Title:      rep.Title,
		Range:      r,
		Today:      today,
		Table:      rep.Build(tree, stats, table),
		Currency:   table,
		ChartName:  def.Slug() + ".png",
		dateFormat: g.dateFormat,
	}

	out.Chart, err = chart.Pie(out.Title, out.Table.Slices)
	switch {
	case errors.Is(err, chart.ErrNoData):
		out.Chart = nil
	case err != nil:
		return nil, err
	}

	out.HTML, err = out.RenderHTML(out.ChartName)
	if err != nil {
		return nil, err
	}

	start, end := "", ""
	if r.WithDate {
		start, end = r.Start.String(), r.End.String()
	}
	g.structured.LogReportGenerated(ctx, def.Kind.Slug(), def.Preset.String(), start, end,
		out.Table.AmountRows(), out.Table.GrandTotal.Cents, out.Table.BaseCurrency)
	return out, nil
}

// Page returns the HTML page model with the chart linked at chartURL.
func (o *Output) Page(chartURL string) Page {
	if o.Chart == nil {
		chartURL = ""
	}
	return Page{
		Title:      o.Title,
		Range:      o.Range,
		Today:      o.Today,
		DateFormat: o.dateFormat,
		ChartURL:   chartURL,
		Table:      o.Table,
		Currency:   o.Currency,
	}
}

// RenderHTML renders the page again with a different chart location.
func (o *Output) RenderHTML(chartURL string) ([]byte, error) {
	return RenderHTML(o.Page(chartURL))
}

// XLSX exports the report table.
func (o *Output) XLSX() ([]byte, error) {
	return RenderXLSX(o.Table, o.Title)
}

// GenerateAll generates defs with at most limit reports in flight and hands
// each result to fn, which may run concurrently. The first error stops the
// remaining work.
func (g *Generator) GenerateAll(ctx context.Context, defs []Definition, limit int, fn func(*Output) error) error {
	if limit <= 0 {
		limit = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, def := range defs {
		eg.Go(func() error {
			out, err := g.Generate(egCtx, def)
			if err != nil {
				return fmt.Errorf("%s: %w", def, err)
			}
			return fn(out)
		})
	}
	return eg.Wait()
}
