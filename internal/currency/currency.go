// Package currency converts per-currency sums into the base currency and
// formats amounts the way the ledger's locale settings describe.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"catreport/internal/core"
)

const DefaultBase = "EUR"

type (
	Currency struct {
		Code           string
		Name           string
		PrefixSymbol   string
		SuffixSymbol   string
		DecimalPoint   string
		GroupSeparator string
		// Scale is the number of minor units in one major unit (100 for cents).
		Scale int64
		// BaseRate converts one major unit of this currency into the base currency.
		BaseRate decimal.Decimal
	}

	Table struct {
		Base   string
		ByCode map[string]Currency
	}
)

// Default returns a table with the common currencies and EUR as base.
func Default() Table {
	t := Table{Base: DefaultBase, ByCode: map[string]Currency{}}
	for _, c := range []Currency{
		{Code: "EUR", Name: "Euro", PrefixSymbol: "€", DecimalPoint: ",", GroupSeparator: ".", Scale: 100, BaseRate: decimal.NewFromInt(1)},
		{Code: "USD", Name: "US Dollar", PrefixSymbol: "$", DecimalPoint: ".", GroupSeparator: ",", Scale: 100, BaseRate: decimal.RequireFromString("0.92")},
		{Code: "GBP", Name: "Pound Sterling", PrefixSymbol: "£", DecimalPoint: ".", GroupSeparator: ",", Scale: 100, BaseRate: decimal.RequireFromString("1.17")},
		{Code: "CHF", Name: "Swiss Franc", SuffixSymbol: " CHF", DecimalPoint: ".", GroupSeparator: "'", Scale: 100, BaseRate: decimal.RequireFromString("1.04")},
		{Code: "JPY", Name: "Japanese Yen", PrefixSymbol: "¥", DecimalPoint: ".", GroupSeparator: ",", Scale: 1, BaseRate: decimal.RequireFromString("0.0062")},
	} {
		t.ByCode[c.Code] = c
	}
	return t
}

// NewTable builds a table from a list of currencies.
func NewTable(base string, list []Currency) Table {
	t := Table{Base: strings.ToUpper(strings.TrimSpace(base)), ByCode: make(map[string]Currency, len(list))}
	for _, c := range list {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Scale <= 0 {
			c.Scale = 100
		}
		if c.BaseRate.IsZero() {
			c.BaseRate = decimal.NewFromInt(1)
		}
		t.ByCode[c.Code] = c
	}
	return t
}

// WithBase returns a copy of t using code as base currency. Codes missing from
// the table are rejected.
func (t Table) WithBase(code string) (Table, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return t, nil
	}
	if _, ok := t.ByCode[code]; !ok {
		return t, fmt.Errorf("base currency %q not in currency table", code)
	}
	t.Base = code
	return t, nil
}

// BaseCurrency returns the base currency entry, falling back to a plain
// two-decimal currency when the table does not describe it.
func (t Table) BaseCurrency() Currency {
	if c, ok := t.ByCode[t.Base]; ok {
		return c
	}
	return Currency{Code: t.Base, DecimalPoint: ".", GroupSeparator: ",", Scale: 100, BaseRate: decimal.NewFromInt(1)}
}

// ToBase converts every per-currency amount into base minor units and sums them.
// Unknown currencies are treated as already being in the base currency.
func (t Table) ToBase(amounts map[string]core.Money) core.Money {
	base := t.BaseCurrency()
	var total core.Money
	for code, m := range amounts {
		if m.IsZero() {
			continue
		}
		c, ok := t.ByCode[code]
		if !ok || code == base.Code {
			total = total.Add(m)
			continue
		}
		rate := c.BaseRate.
			Div(nonZero(base.BaseRate)).
			Mul(decimal.NewFromInt(positiveScale(base.Scale))).
			Div(decimal.NewFromInt(positiveScale(c.Scale)))
		total = total.Add(m.Convert(rate))
	}
	return total
}

// nonZero maps a zero rate to 1, the rate of a currency against itself.
func nonZero(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
}

func positiveScale(scale int64) int64 {
	if scale <= 0 {
		return 1
	}
	return scale
}

// Format renders m, expressed in base minor units, with the base currency's
// symbols and separators.
func (t Table) Format(m core.Money) string {
	return t.BaseCurrency().Format(m)
}

func (c Currency) Format(m core.Money) string {
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	decimals := 0
	for s := scale; s > 1; s /= 10 {
		decimals++
	}

	cents := uint64(m.Cents)
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole, frac := cents/uint64(scale), cents%uint64(scale)

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(c.PrefixSymbol)
	b.WriteString(groupThousands(whole, c.GroupSeparator))
	if decimals > 0 {
		point := c.DecimalPoint
		if point == "" {
			point = "."
		}
		b.WriteString(point)
		b.WriteString(fmt.Sprintf("%0*d", decimals, frac))
	}
	b.WriteString(c.SuffixSymbol)
	return b.String()
}

func groupThousands(n uint64, sep string) string {
	s := fmt.Sprintf("%d", n)
	if sep == "" || len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
