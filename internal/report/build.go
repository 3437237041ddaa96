package report

import (
	"github.com/shopspring/decimal"

	"catreport/internal/chart"
	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/daterange"
)

// RowKind tells the renderers how to draw a row.
type RowKind int

const (
	CategoryRow      RowKind = iota // a category's own amount, label in italics
	SubCategoryRow                  // "Category:Sub" amount
	CategoryTotalRow                // sum of a category and its children
	RuleRow                         // horizontal line above a category total
	GapRow                          // blank space between category sections
)

const (
	categoryTotalLabel = "Category Total: "
	grandTotalLabel    = "Grand Total: "
)

type (
	Row struct {
		Kind   RowKind
		Label  string
		Amount core.Money
	}

	// Table is a built report: rows in display order, the grand total and
	// the pie slices, all in the base currency.
	Table struct {
		Rows         []Row
		GrandTotal   core.Money
		Slices       []chart.Slice
		BaseCurrency string
		// BaseScale is the number of minor units per major unit of BaseCurrency.
		BaseScale int64
	}

	// Report binds a kind to a resolved range and a title.
	Report struct {
		Kind  Kind
		Range daterange.Range
		Title string
	}
)

// NewReport returns a report definition resolved to a concrete range. An empty
// title falls back to "<heading> - <range label>".
func NewReport(kind Kind, r daterange.Range, title string) *Report {
	if title == "" {
		title = kind.Heading() + " - " + r.Label()
	}
	return &Report{Kind: kind, Range: r, Title: title}
}

// Build computes the table for stats already restricted to the report range.
func (r *Report) Build(tree core.CategoryTree, stats core.CategoryStats, table currency.Table) Table {
	return Build(tree, stats, table, r.Kind)
}

// Build walks the tree in order and emits one section per category. Amounts
// are converted to the base currency, then filtered by kind.
func Build(tree core.CategoryTree, stats core.CategoryStats, table currency.Table, kind Kind) Table {
	base := table.BaseCurrency()
	out := Table{BaseCurrency: base.Code, BaseScale: base.Scale}

	for _, cat := range tree {
		var catTotal core.Money

		amt := kind.Filter(table.ToBase(stats.Get(cat.ID, core.NoSubCategory)))
		catTotal = catTotal.Add(amt)
		out.GrandTotal = out.GrandTotal.Add(amt)
		if !amt.IsZero() {
			out.Rows = append(out.Rows, Row{Kind: CategoryRow, Label: cat.Name, Amount: amt})
			out.Slices = append(out.Slices, chart.Slice{Label: cat.Name, Value: out.Major(amt).InexactFloat64()})
		}

		subRows := 0
		for _, sub := range cat.Children {
			amt := kind.Filter(table.ToBase(stats.Get(cat.ID, sub.ID)))
			catTotal = catTotal.Add(amt)
			out.GrandTotal = out.GrandTotal.Add(amt)
			if amt.IsZero() {
				continue
			}
			subRows++
			name := tree.FullName(cat.ID, sub.ID)
			out.Rows = append(out.Rows, Row{Kind: SubCategoryRow, Label: name, Amount: amt})
			out.Slices = append(out.Slices, chart.Slice{Label: name, Value: out.Major(amt).InexactFloat64()})
		}

		if subRows > 1 {
			out.Rows = append(out.Rows,
				Row{Kind: RuleRow},
				Row{Kind: CategoryTotalRow, Label: categoryTotalLabel, Amount: catTotal},
			)
		}
		if subRows > 0 {
			out.Rows = append(out.Rows, Row{Kind: GapRow})
		}
	}
	return out
}

// AmountRows counts the rows that carry an amount.
func (t Table) AmountRows() int {
	n := 0
	for _, r := range t.Rows {
		if r.Kind == CategoryRow || r.Kind == SubCategoryRow || r.Kind == CategoryTotalRow {
			n++
		}
	}
	return n
}

// Major converts base minor units into major units.
func (t Table) Major(m core.Money) decimal.Decimal {
	scale := t.BaseScale
	if scale <= 0 {
		scale = 100
	}
	return decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(scale))
}
