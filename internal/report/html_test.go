package report

import (
	"bytes"
	"strings"
	"testing"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/daterange"
)

func testPage(t *testing.T, kind Kind, preset daterange.Preset) Page {
	t.Helper()
	r, err := daterange.Resolve(preset, fixedClock, daterange.DefaultFinancialYear())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	def := Definition{Kind: kind, Preset: preset}
	return Page{
		Title:    def.Title(),
		Range:    r,
		Today:    core.DateOf(fixedClock()),
		ChartURL: "chart.png",
		Table:    Build(testTree(), testStats(), currency.Default(), kind),
		Currency: currency.Default(),
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testPage(t, Categories, daterange.CurrentMonth)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<h2>Categories - Current Month</h2>",
		"From <b>2024-03-01</b> till <b>2024-03-31</b>",
		"Today's Date: 2024-03-15",
		`<img src="chart.png"`,
		"<th>Category</th>",
		`<td><i>Auto</i></td><td class="amount">-€5,00</td>`,
		`<td>Auto:Fuel</td><td class="amount negative">-€30,00</td>`,
		`<tr class="category-total"><td>Category Total: </td><td class="amount">-€44,20</td>`,
		`<td><i>Food</i></td><td class="amount">€15,00</td>`,
		`<tr class="rule">`,
		`<tr class="gap">`,
		`Grand Total: </td><td class="amount">€50,80</td>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Count(out, `<tr class="category-total">`) != 1 {
		t.Errorf("expected exactly one category total row")
	}
}

func TestRenderOverTimeWithoutChart(t *testing.T) {
	p := testPage(t, Comes, daterange.AllTime)
	p.Table = Table{}
	p.DateFormat = "02/01/2006"

	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Over Time") || strings.Contains(out, "From <b>") {
		t.Errorf("expected the Over Time heading")
	}
	if strings.Contains(out, "<img") {
		t.Errorf("chart image should be hidden when there is nothing to draw")
	}
	if !strings.Contains(out, "Today's Date: 15/03/2024") {
		t.Errorf("custom date format not applied")
	}
	if !strings.Contains(out, `Grand Total: </td><td class="amount">€0,00</td>`) {
		t.Errorf("missing zero grand total")
	}
}

func TestRenderEscapesLabels(t *testing.T) {
	p := testPage(t, Comes, daterange.CurrentMonth)
	p.Table = Table{Rows: []Row{{Kind: CategoryRow, Label: "<script>", Amount: core.Money{Cents: 1}}}}

	html, err := RenderHTML(p)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if bytes.Contains(html, []byte("<script>")) {
		t.Fatal("label was not escaped")
	}
}
