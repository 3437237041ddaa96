package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/daterange"
	appweb "catreport/web"
)

// DefaultDateFormat is the layout used for dates on the page.
const DefaultDateFormat = "2006-01-02"

// Page is everything the HTML document shows.
type Page struct {
	Title      string
	Range      daterange.Range
	Today      core.Date
	DateFormat string
	// ChartURL is the src of the chart image. Empty hides the image.
	ChartURL string
	Table    Table
	Currency currency.Table
}

type (
	rowView struct {
		Kind     string
		Label    string
		Amount   string
		Negative bool
	}

	pageView struct {
		Title      string
		WithDate   bool
		Start      string
		End        string
		Today      string
		ChartURL   string
		Rows       []rowView
		GrandTotal string
	}
)

var rowKindNames = map[RowKind]string{
	CategoryRow:      "category",
	SubCategoryRow:   "subcategory",
	CategoryTotalRow: "category-total",
	RuleRow:          "rule",
	GapRow:           "gap",
}

var (
	tmplOnce sync.Once
	tmpl     *template.Template
	tmplErr  error
)

func reportTemplate() (*template.Template, error) {
	tmplOnce.Do(func() {
		tmpl, tmplErr = template.ParseFS(appweb.TemplatesFS, "templates/report.html")
	})
	return tmpl, tmplErr
}

// Render writes p as a standalone HTML document.
func Render(w io.Writer, p Page) error {
	t, err := reportTemplate()
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	if err := t.ExecuteTemplate(w, "report.html", newPageView(p)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderHTML is Render into a byte slice.
func RenderHTML(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newPageView(p Page) pageView {
	layout := p.DateFormat
	if layout == "" {
		layout = DefaultDateFormat
	}
	cur := p.Currency
	if cur.ByCode == nil {
		cur = currency.Default()
	}

	v := pageView{
		Title:      p.Title,
		WithDate:   p.Range.WithDate,
		ChartURL:   p.ChartURL,
		GrandTotal: cur.Format(p.Table.GrandTotal),
	}
	if p.Range.WithDate {
		v.Start = p.Range.Start.Format(layout)
		v.End = p.Range.End.Format(layout)
	}
	if !p.Today.IsZero() {
		v.Today = p.Today.Format(layout)
	}
	if len(p.Table.Slices) == 0 {
		v.ChartURL = ""
	}

	v.Rows = make([]rowView, 0, len(p.Table.Rows))
	for _, r := range p.Table.Rows {
		rv := rowView{Kind: rowKindNames[r.Kind], Label: r.Label}
		if r.Kind != RuleRow && r.Kind != GapRow {
			rv.Amount = cur.Format(r.Amount)
			rv.Negative = r.Kind == SubCategoryRow && r.Amount.Cents < 0
		}
		v.Rows = append(v.Rows, rv)
	}
	return v
}
