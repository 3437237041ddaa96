package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"catreport/internal/core"
	"catreport/internal/currency"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("versions = %d, %d; want 1, 1", v1, v2)
	}
}

func TestCategoriesOrderedByName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, _ := repo.AddCategory(ctx, "food")
	bills, _ := repo.AddCategory(ctx, "Bills")
	_, _ = repo.AddCategory(ctx, "Automobile")
	if _, err := repo.AddSubCategory(ctx, food, "groceries"); err != nil {
		t.Fatalf("AddSubCategory: %v", err)
	}
	_, _ = repo.AddSubCategory(ctx, food, "Dining")
	_, _ = repo.AddSubCategory(ctx, bills, "Water")

	if _, err := repo.AddCategory(ctx, "FOOD"); err == nil {
		t.Fatalf("expected unique violation for case-insensitive duplicate")
	}
	if _, err := repo.AddCategory(ctx, "  "); err != core.ErrEmptyCategory {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}

	tree, err := repo.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	var names []string
	for _, c := range tree {
		names = append(names, c.Name)
	}
	if len(names) != 3 || names[0] != "Automobile" || names[1] != "Bills" || names[2] != "food" {
		t.Fatalf("unexpected order: %v", names)
	}
	if len(tree[0].Children) != 0 {
		t.Fatalf("Automobile should have no children: %+v", tree[0].Children)
	}
	kids := tree[2].Children
	if len(kids) != 2 || kids[0].Name != "Dining" || kids[1].Name != "groceries" {
		t.Fatalf("unexpected children: %+v", kids)
	}
}

func TestCategoryStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, _ := repo.AddCategory(ctx, "Food")
	groceries, _ := repo.AddSubCategory(ctx, food, "Groceries")
	income, _ := repo.AddCategory(ctx, "Income")
	leisure, _ := repo.AddCategory(ctx, "Leisure")

	add := func(tx core.Transaction) {
		t.Helper()
		if _, err := repo.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	day := func(d int) core.Date { return core.NewDate(2024, 3, d) }

	add(core.Transaction{Date: day(1), Type: core.Deposit, Amount: core.Money{Cents: 100000}, CategoryID: income, SubCategoryID: core.NoSubCategory, Currency: "EUR"})
	add(core.Transaction{Date: day(2), Type: core.Withdrawal, Amount: core.Money{Cents: 1500}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"})
	add(core.Transaction{Date: day(3), Type: core.Withdrawal, Amount: core.Money{Cents: 1000}, CategoryID: food, SubCategoryID: groceries, Currency: "USD"})
	add(core.Transaction{Date: day(4), Type: core.Withdrawal, Status: core.StatusVoid, Amount: core.Money{Cents: 999}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"})
	add(core.Transaction{Date: day(5), Type: core.Transfer, Amount: core.Money{Cents: 5000}, Currency: "EUR"})
	add(core.Transaction{Date: day(6), Type: core.Withdrawal, Amount: core.Money{Cents: 3000}, Currency: "EUR", Splits: []core.Split{
		{CategoryID: food, SubCategoryID: core.NoSubCategory, Amount: core.Money{Cents: 1000}},
		{CategoryID: leisure, SubCategoryID: core.NoSubCategory, Amount: core.Money{Cents: 2000}},
	}})
	add(core.Transaction{Date: day(20), Type: core.Withdrawal, Amount: core.Money{Cents: 700}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"})
	add(core.Transaction{Date: core.NewDate(2024, 4, 1), Type: core.Withdrawal, Amount: core.Money{Cents: 400}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"})

	t.Run("all time", func(t *testing.T) {
		stats, err := repo.CategoryStats(ctx, core.StatsQuery{})
		if err != nil {
			t.Fatalf("CategoryStats: %v", err)
		}
		if got := stats.Get(food, groceries)["EUR"].Cents; got != -2600 {
			t.Errorf("groceries EUR = %d, want -2600", got)
		}
		if got := stats.Get(food, groceries)["USD"].Cents; got != -1000 {
			t.Errorf("groceries USD = %d, want -1000", got)
		}
		if got := stats.Get(food, core.NoSubCategory)["EUR"].Cents; got != -1000 {
			t.Errorf("food split = %d, want -1000", got)
		}
		if got := stats.Get(leisure, core.NoSubCategory)["EUR"].Cents; got != -2000 {
			t.Errorf("leisure split = %d, want -2000", got)
		}
		if got := stats.Get(income, core.NoSubCategory)["EUR"].Cents; got != 100000 {
			t.Errorf("income = %d, want 100000", got)
		}
	})

	t.Run("date window", func(t *testing.T) {
		stats, err := repo.CategoryStats(ctx, core.StatsQuery{Start: day(2), End: day(6), WithDate: true})
		if err != nil {
			t.Fatalf("CategoryStats: %v", err)
		}
		if got := stats.Get(food, groceries)["EUR"].Cents; got != -1500 {
			t.Errorf("groceries EUR = %d, want -1500", got)
		}
		if _, ok := stats[income]; ok {
			t.Errorf("income outside window should be absent")
		}
	})

	t.Run("ignore future", func(t *testing.T) {
		stats, err := repo.CategoryStats(ctx, core.StatsQuery{IgnoreFuture: true, Today: day(10)})
		if err != nil {
			t.Fatalf("CategoryStats: %v", err)
		}
		if got := stats.Get(food, groceries)["EUR"].Cents; got != -1500 {
			t.Errorf("groceries EUR = %d, want -1500", got)
		}
	})

	t.Run("matches in-memory aggregation", func(t *testing.T) {
		q := core.StatsQuery{Start: day(1), End: day(31), WithDate: true}
		stats, err := repo.CategoryStats(ctx, q)
		if err != nil {
			t.Fatalf("CategoryStats: %v", err)
		}
		mem := core.AggregateStats([]core.Transaction{
			{Date: day(2), Type: core.Withdrawal, Amount: core.Money{Cents: 1500}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"},
			{Date: day(20), Type: core.Withdrawal, Amount: core.Money{Cents: 700}, CategoryID: food, SubCategoryID: groceries, Currency: "EUR"},
		}, q)
		if stats.Get(food, groceries)["EUR"] != mem.Get(food, groceries)["EUR"] {
			t.Errorf("sql %v != memory %v", stats.Get(food, groceries), mem.Get(food, groceries))
		}
	})
}

func TestCurrencies(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	table, err := repo.Currencies(ctx)
	if err != nil {
		t.Fatalf("Currencies: %v", err)
	}
	if table.Base != "EUR" || table.ByCode["USD"].BaseRate.String() != "0.92" {
		t.Fatalf("unexpected seeded table: %+v", table)
	}

	err = repo.AddCurrency(ctx, currency.Currency{Code: "chf", Name: "Swiss Franc", SuffixSymbol: " CHF", DecimalPoint: ".", GroupSeparator: "'", BaseRate: decimal.RequireFromString("1.04")})
	if err != nil {
		t.Fatalf("AddCurrency: %v", err)
	}
	if err := repo.SetBaseCurrency(ctx, "chf"); err != nil {
		t.Fatalf("SetBaseCurrency: %v", err)
	}
	table, err = repo.Currencies(ctx)
	if err != nil {
		t.Fatalf("Currencies: %v", err)
	}
	if table.Base != "CHF" {
		t.Fatalf("base = %q", table.Base)
	}
	chf := table.ByCode["CHF"]
	if chf.Scale != 100 || !chf.BaseRate.Equal(decimal.RequireFromString("1.04")) {
		t.Fatalf("unexpected CHF: %+v", chf)
	}
	if got := table.Format(core.Money{Cents: 123456}); got != "1'234.56 CHF" {
		t.Fatalf("Format = %q", got)
	}
}

func TestAddTransactionValidates(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddTransaction(context.Background(), core.Transaction{Date: core.NewDate(2024, 1, 1), Type: core.Withdrawal, Currency: "EUR", CategoryID: 1})
	if err != core.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
