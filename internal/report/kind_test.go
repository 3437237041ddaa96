package report

import (
	"errors"
	"testing"

	"catreport/internal/core"
	"catreport/internal/daterange"
)

func TestKindFilter(t *testing.T) {
	pos, neg := core.Money{Cents: 100}, core.Money{Cents: -100}
	tests := []struct {
		kind     Kind
		in, want core.Money
	}{
		{Categories, pos, pos},
		{Categories, neg, neg},
		{Comes, pos, pos},
		{Comes, neg, core.Money{}},
		{Goes, pos, core.Money{}},
		{Goes, neg, neg},
		{Goes, core.Money{}, core.Money{}},
	}
	for _, tt := range tests {
		if got := tt.kind.Filter(tt.in); got != tt.want {
			t.Errorf("%s.Filter(%d) = %d, want %d", tt.kind, tt.in.Cents, got.Cents, tt.want.Cents)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.Slug())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.Slug(), got, err)
		}
	}
	if got, err := ParseKind(" GOES "); err != nil || got != Goes {
		t.Fatalf("ParseKind is not case-insensitive: %v, %v", got, err)
	}
	if _, err := ParseKind("spending"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDefinitionTitle(t *testing.T) {
	tests := []struct {
		def  Definition
		want string
	}{
		{Definition{Goes, daterange.CurrentMonth}, "Where the Money Goes - Current Month"},
		{Definition{Categories, daterange.Last30Days}, "Categories - Last 30 Days"},
		{Definition{Comes, daterange.Last30Days}, "Where the Money Comes From - Last 30 Days"},
		{Definition{Categories, daterange.CurrentFinancialYear}, "Categories - Current Financial Year"},
		{Definition{Comes, daterange.AllTime}, "Where the Money Comes From - Over Time"},
	}
	for _, tt := range tests {
		if got := tt.def.Title(); got != tt.want {
			t.Errorf("Title() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	if want := len(Kinds()) * len(daterange.Presets()); len(defs) != want {
		t.Fatalf("len(Definitions()) = %d, want %d", len(defs), want)
	}
	seen := map[string]bool{}
	for _, d := range defs {
		if seen[d.Slug()] {
			t.Fatalf("duplicate definition %s", d.Slug())
		}
		seen[d.Slug()] = true
	}
	if defs[0].Slug() != "categories-current_month" {
		t.Fatalf("first definition = %s", defs[0].Slug())
	}
}

func TestParseDefinition(t *testing.T) {
	d, err := ParseDefinition("comes", "last_financial_year")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if d.Kind != Comes || d.Preset != daterange.LastFinancialYear {
		t.Fatalf("unexpected definition %+v", d)
	}
	if _, err := ParseDefinition("goes", "next_week"); !errors.Is(err, daterange.ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	if _, err := ParseDefinition("nope", "all_time"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
