package currency

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"catreport/internal/core"
)

func TestFormat(t *testing.T) {
	eur := Default()
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "€0,00"},
		{5, "€0,05"},
		{123450, "€1.234,50"},
		{-123450, "-€1.234,50"},
		{100000000, "€1.000.000,00"},
	}
	for _, tt := range tests {
		if got := eur.Format(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}

	chf, err := eur.WithBase("chf")
	if err != nil {
		t.Fatalf("WithBase: %v", err)
	}
	if got := chf.Format(core.Money{Cents: 123456}); got != "1'234.56 CHF" {
		t.Errorf("CHF format = %q", got)
	}

	jpy, _ := eur.WithBase("JPY")
	if got := jpy.Format(core.Money{Cents: -1500}); got != "-¥1,500" {
		t.Errorf("JPY format = %q", got)
	}
}

func TestToBase(t *testing.T) {
	tbl := NewTable("EUR", []Currency{
		{Code: "EUR", Scale: 100, BaseRate: decimal.NewFromInt(1)},
		{Code: "USD", Scale: 100, BaseRate: decimal.RequireFromString("0.5")},
		{Code: "JPY", Scale: 1, BaseRate: decimal.RequireFromString("0.01")},
	})
	got := tbl.ToBase(map[string]core.Money{
		"EUR": {Cents: 1000},
		"USD": {Cents: -1000},
		"JPY": {Cents: 250},
		"XXX": {Cents: 7},
	})
	// 1000 - 500 + 250 + 7
	if got.Cents != 757 {
		t.Fatalf("ToBase = %d, want 757", got.Cents)
	}
	if !tbl.ToBase(nil).IsZero() {
		t.Fatalf("empty map should sum to zero")
	}
}

func TestToBaseNonUnitBase(t *testing.T) {
	tbl, err := NewTable("EUR", []Currency{
		{Code: "EUR", BaseRate: decimal.NewFromInt(1)},
		{Code: "USD", BaseRate: decimal.RequireFromString("0.8")},
	}).WithBase("USD")
	if err != nil {
		t.Fatalf("WithBase: %v", err)
	}
	// 8 EUR -> 10 USD
	if got := tbl.ToBase(map[string]core.Money{"EUR": {Cents: 800}}); got.Cents != 1000 {
		t.Fatalf("ToBase = %d, want 1000", got.Cents)
	}
}

func TestToBaseZeroBaseRate(t *testing.T) {
	tbl := Table{Base: "EUR", ByCode: map[string]Currency{
		"EUR": {Code: "EUR", Scale: 100},
		"USD": {Code: "USD", Scale: 100, BaseRate: decimal.RequireFromString("0.5")},
	}}
	if got := tbl.ToBase(map[string]core.Money{"USD": {Cents: 1000}}); got.Cents != 500 {
		t.Fatalf("ToBase = %d, want 500", got.Cents)
	}
}

func TestFormatMinInt64(t *testing.T) {
	usd := Currency{Code: "USD", PrefixSymbol: "$", DecimalPoint: ".", GroupSeparator: ",", Scale: 100}
	want := "-$92,233,720,368,547,758.08"
	if got := usd.Format(core.Money{Cents: math.MinInt64}); got != want {
		t.Fatalf("Format(MinInt64) = %q, want %q", got, want)
	}
}

func TestWithBaseUnknown(t *testing.T) {
	if _, err := Default().WithBase("ZZZ"); err == nil {
		t.Fatalf("expected error for unknown base")
	}
	tbl, err := Default().WithBase("")
	if err != nil || tbl.Base != DefaultBase {
		t.Fatalf("empty code should keep base, got %q %v", tbl.Base, err)
	}
}
