package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"catreport/internal/core"
	"catreport/internal/currency"
)

// names assigns category and sub-category ids in first-seen order.
type names struct {
	cats  []core.Category
	index map[string]int
	next  int64
}

func newNames() *names {
	return &names{index: map[string]int{}, next: 1}
}

func (n *names) ids(category, sub string) (int64, int64) {
	category = strings.TrimSpace(category)
	key := strings.ToLower(category)
	i, ok := n.index[key]
	if !ok {
		n.cats = append(n.cats, core.Category{ID: n.next, Name: category})
		n.next++
		i = len(n.cats) - 1
		n.index[key] = i
	}
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return n.cats[i].ID, core.NoSubCategory
	}
	for _, s := range n.cats[i].Children {
		if strings.EqualFold(s.Name, sub) {
			return n.cats[i].ID, s.ID
		}
	}
	id := n.next
	n.next++
	n.cats[i].Children = append(n.cats[i].Children, core.SubCategory{ID: id, Name: sub})
	return n.cats[i].ID, id
}

func (n *names) tree() core.CategoryTree {
	return core.CategoryTree(n.cats)
}

// parseCategories reads rows of (category, sub-category). A blank category
// cell continues the previous category, as grouped sheets are usually laid out.
func parseCategories(values [][]interface{}) *names {
	n := newNames()
	current := ""
	for _, row := range values {
		cols := toStrings(row)
		cat := safeGet(cols, 0)
		if strings.HasPrefix(cat, "#") {
			continue
		}
		if cat != "" {
			current = cat
		}
		if current == "" {
			continue
		}
		n.ids(current, safeGet(cols, 1))
	}
	return n
}

// parseCurrencies reads rows of (code, symbol, base rate) on top of the
// built-in table so separators and scale keep sensible defaults.
func parseCurrencies(values [][]interface{}, base string) (currency.Table, error) {
	table := currency.Default()
	for i, row := range values {
		cols := toStrings(row)
		code := strings.ToUpper(safeGet(cols, 0))
		if code == "" {
			continue
		}
		c, ok := table.ByCode[code]
		if !ok {
			c = currency.Currency{Code: code, Name: code, DecimalPoint: ".", GroupSeparator: ",", Scale: 100, BaseRate: decimal.NewFromInt(1)}
		}
		if sym := safeGet(cols, 1); sym != "" {
			c.PrefixSymbol, c.SuffixSymbol = sym, ""
		}
		if raw := safeGet(cols, 2); raw != "" {
			rate, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
			if err != nil {
				return currency.Table{}, fmt.Errorf("currencies row %d: base rate %q: %w", i+2, raw, err)
			}
			if rate.IsNegative() {
				return currency.Table{}, fmt.Errorf("currencies row %d: negative base rate %q", i+2, raw)
			}
			c.BaseRate = rate
		}
		if c.BaseRate.IsZero() {
			c.BaseRate = decimal.NewFromInt(1)
		}
		table.ByCode[code] = c
	}
	return table.WithBase(base)
}

// parseTransactions converts rows of
// (date, type, amount, category, sub-category, currency, status).
// Rows that cannot be parsed are counted and skipped.
func parseTransactions(values [][]interface{}, n *names, base string) ([]core.Transaction, int) {
	var (
		out     []core.Transaction
		skipped int
	)
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 || strings.Join(cols, "") == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", safeGet(cols, 0))
		if err != nil {
			skipped++
			continue
		}
		cents, ok := parseAmountToCents(safeGet(cols, 2))
		if !ok {
			skipped++
			continue
		}
		typ := parseType(safeGet(cols, 1))
		if typ == "" {
			typ = core.Withdrawal
			if cents > 0 {
				typ = core.Deposit
			}
		}
		if cents < 0 {
			cents = -cents
		}
		cur := strings.ToUpper(safeGet(cols, 5))
		if cur == "" {
			cur = base
		}
		t := core.Transaction{
			ID:            int64(i + 1),
			Date:          core.DateOf(d),
			Type:          typ,
			Status:        core.Status(strings.ToUpper(safeGet(cols, 6))),
			Amount:        core.Money{Cents: cents},
			SubCategoryID: core.NoSubCategory,
			Currency:      cur,
		}
		if cat := safeGet(cols, 3); cat != "" {
			t.CategoryID, t.SubCategoryID = n.ids(cat, safeGet(cols, 4))
		}
		if err := t.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseType(s string) core.TransactionType {
	switch strings.ToLower(s) {
	case "withdrawal", "expense":
		return core.Withdrawal
	case "deposit", "income":
		return core.Deposit
	case "transfer":
		return core.Transfer
	case "":
		return ""
	default:
		return core.TransactionType(s)
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts numbers as the Sheets API formats them, with a
// decimal comma or point and an optional thousands separator.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return 0, false
	}
	return d.Shift(2).Round(0).IntPart(), true
}
