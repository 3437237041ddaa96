package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"catreport/internal/core"
	"catreport/internal/currency"
)

const ledgerYAML = `
base_currency: EUR
currencies:
  - code: USD
    base_rate: "0.5"
categories:
  - name: Food
    subcategories: [Groceries, Dining Out]
  - name: Income
transactions:
  - date: "2024-03-01"
    type: Deposit
    amount: "1000.00"
    category: Income
  - date: "2024-03-02"
    type: Withdrawal
    amount: "12,50"
    category: Food
    subcategory: Groceries
  - date: "2024-03-03"
    type: Withdrawal
    amount: "20"
    currency: USD
    category: Food
    subcategory: groceries
  - date: "2024-03-04"
    type: Withdrawal
    amount: "30"
    splits:
      - category: Food
        subcategory: Dining Out
        amount: "10"
      - category: Travel
        amount: "20"
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(ledgerYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := context.Background()

	tree, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(tree) != 3 || tree[0].Name != "Food" || tree[1].Name != "Income" || tree[2].Name != "Travel" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if len(tree[0].Children) != 2 {
		t.Fatalf("expected 2 food subcategories, got %+v", tree[0].Children)
	}

	table, _ := s.Currencies(ctx)
	if table.Base != "EUR" || table.ByCode["USD"].BaseRate.String() != "0.5" {
		t.Fatalf("unexpected currency table: %+v", table)
	}

	stats, err := s.CategoryStats(ctx, core.StatsQuery{})
	if err != nil {
		t.Fatalf("CategoryStats: %v", err)
	}
	food := tree[0]
	groceries := food.Children[0].ID
	if got := stats.Get(food.ID, groceries)["EUR"].Cents; got != -1250 {
		t.Errorf("groceries EUR = %d, want -1250", got)
	}
	if got := stats.Get(food.ID, groceries)["USD"].Cents; got != -2000 {
		t.Errorf("groceries USD = %d, want -2000", got)
	}
	if got := stats.Get(food.ID, food.Children[1].ID)["EUR"].Cents; got != -1000 {
		t.Errorf("dining split = %d, want -1000", got)
	}
	if got := stats.Get(tree[2].ID, core.NoSubCategory)["EUR"].Cents; got != -2000 {
		t.Errorf("travel split = %d, want -2000", got)
	}
	if got := stats.Get(tree[1].ID, core.NoSubCategory)["EUR"].Cents; got != 100000 {
		t.Errorf("income = %d, want 100000", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "categories: [:"},
		{"bad date", "transactions:\n  - {date: '03/01/2024', amount: '1', category: A}"},
		{"zero amount", "transactions:\n  - {date: '2024-03-01', amount: '0', category: A}"},
		{"no category", "transactions:\n  - {date: '2024-03-01', amount: '1'}"},
		{"unknown base", "base_currency: ZZZ"},
		{"bad rate", "currencies:\n  - {code: USD, base_rate: abc}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> demo ledger
	s, err := NewFromFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("NewFromFile missing: %v", err)
	}
	tree, _ := s.Categories(context.Background())
	if len(tree) == 0 {
		t.Fatalf("expected demo categories")
	}

	path := filepath.Join(dir, "ledger.yaml")
	if err := os.WriteFile(path, []byte(ledgerYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	tree, _ = s.Categories(context.Background())
	if tree[0].Name != "Food" {
		t.Fatalf("unexpected tree %+v", tree)
	}
}

func TestAppend(t *testing.T) {
	tree := core.CategoryTree{{ID: 1, Name: "Food"}}
	s := New(tree, currency.Default(), nil)
	ctx := context.Background()

	err := s.Append(ctx, core.Transaction{Date: core.NewDate(2024, 1, 1), Type: core.Withdrawal, Amount: core.Money{Cents: 100}, CategoryID: 1, SubCategoryID: core.NoSubCategory, Currency: "EUR"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	err = s.Append(ctx, core.Transaction{Date: core.NewDate(2024, 1, 1), Type: core.Withdrawal, Amount: core.Money{Cents: 0}, CategoryID: 1, Currency: "EUR"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	stats, _ := s.CategoryStats(ctx, core.StatsQuery{})
	if got := stats.Get(1, core.NoSubCategory)["EUR"].Cents; got != -100 {
		t.Fatalf("stats = %d", got)
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	s := New(core.CategoryTree{{ID: 1, Name: "Food", Children: []core.SubCategory{{ID: 2, Name: "Groceries"}}}}, currency.Default(), nil)
	tree, _ := s.Categories(context.Background())
	tree[0].Children[0].Name = "changed"
	again, _ := s.Categories(context.Background())
	if again[0].Children[0].Name != "Groceries" {
		t.Fatalf("store tree mutated through returned copy")
	}
}

func TestDemo(t *testing.T) {
	today := core.NewDate(2024, 3, 31)
	s := Demo(today)
	ctx := context.Background()

	stats, err := s.CategoryStats(ctx, core.StatsQuery{Start: core.NewDate(2024, 3, 1), End: today, WithDate: true})
	if err != nil {
		t.Fatalf("CategoryStats: %v", err)
	}
	if len(stats) == 0 {
		t.Fatalf("expected demo stats in current month")
	}
	future, _ := s.CategoryStats(ctx, core.StatsQuery{Start: today.AddDays(1), End: today.AddDays(60), WithDate: true})
	if len(future) != 0 {
		t.Fatalf("demo should not contain future transactions, got %v", future)
	}
}

func TestTransactionsReturnsCopy(t *testing.T) {
	s, err := Parse([]byte(ledgerYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	txns, err := s.Transactions(context.Background())
	if err != nil || len(txns) != 4 {
		t.Fatalf("Transactions = %d, %v", len(txns), err)
	}
	txns[3].Splits[0].Amount = core.Money{Cents: 1}
	again, _ := s.Transactions(context.Background())
	if again[3].Splits[0].Amount.Cents != 1000 {
		t.Fatalf("store splits mutated through returned copy")
	}
}
