package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/ledger"

	_ "modernc.org/sqlite"
)

// BaseCurrencySetting names the settings row holding the base currency code.
const BaseCurrencySetting = "BASECURRENCY"

var _ ledger.Ledger = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite ledger ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Categories implements ledger.CategoryReader. Categories and their children
// are ordered by name, case-insensitively.
func (r *SQLiteRepository) Categories(ctx context.Context) (core.CategoryTree, error) {
	rows, err := r.queries.ListCategoryRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var tree core.CategoryTree
	for _, row := range rows {
		if len(tree) == 0 || tree[len(tree)-1].ID != row.CategoryID {
			tree = append(tree, core.Category{ID: row.CategoryID, Name: row.CategoryName})
		}
		if row.SubcategoryID.Valid {
			last := &tree[len(tree)-1]
			last.Children = append(last.Children, core.SubCategory{
				ID:   row.SubcategoryID.Int64,
				Name: row.SubcategoryName.String,
			})
		}
	}
	return tree, nil
}

// CategoryStats implements ledger.StatsReader.
func (r *SQLiteRepository) CategoryStats(ctx context.Context, q core.StatsQuery) (core.CategoryStats, error) {
	rows, err := r.queries.CategoryStats(ctx, CategoryStatsParams{
		WithDate:     q.WithDate,
		StartDate:    q.Start.String(),
		EndDate:      q.End.String(),
		IgnoreFuture: q.IgnoreFuture && !q.Today.IsZero(),
		Today:        q.Today.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}

	stats := make(core.CategoryStats)
	for _, row := range rows {
		stats.Add(row.CategoryID, row.SubcategoryID, row.CurrencyCode, core.Money{Cents: row.Total})
	}

	slog.DebugContext(ctx, "Category stats loaded", "rows", len(rows), "with_date", q.WithDate)
	return stats, nil
}

// Currencies implements ledger.CurrencyReader.
func (r *SQLiteRepository) Currencies(ctx context.Context) (currency.Table, error) {
	rows, err := r.queries.ListCurrencies(ctx)
	if err != nil {
		return currency.Table{}, fmt.Errorf("list currencies: %w", err)
	}
	base, err := r.queries.GetSetting(ctx, BaseCurrencySetting)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return currency.Table{}, fmt.Errorf("get base currency: %w", err)
	}
	if base == "" {
		base = currency.DefaultBase
	}

	list := make([]currency.Currency, 0, len(rows))
	for _, row := range rows {
		c, err := currencyFromRow(row)
		if err != nil {
			return currency.Table{}, err
		}
		list = append(list, c)
	}
	return currency.NewTable(base, list), nil
}

func currencyFromRow(row Currency) (currency.Currency, error) {
	rate, err := decimal.NewFromString(row.BaseRate)
	if err != nil {
		return currency.Currency{}, fmt.Errorf("currency %s: base rate %q: %w", row.Code, row.BaseRate, err)
	}
	return currency.Currency{
		Code:           row.Code,
		Name:           row.Name,
		PrefixSymbol:   row.PrefixSymbol,
		SuffixSymbol:   row.SuffixSymbol,
		DecimalPoint:   row.DecimalPoint,
		GroupSeparator: row.GroupSeparator,
		Scale:          row.Scale,
		BaseRate:       rate,
	}, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	id, err := r.queries.CreateCategory(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	return id, nil
}

func (r *SQLiteRepository) AddSubCategory(ctx context.Context, categoryID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	id, err := r.queries.CreateSubcategory(ctx, CreateSubcategoryParams{CategoryID: categoryID, Name: name})
	if err != nil {
		return 0, fmt.Errorf("create subcategory %q: %w", name, err)
	}
	return id, nil
}

// AddCurrency inserts or replaces a currency definition.
func (r *SQLiteRepository) AddCurrency(ctx context.Context, c currency.Currency) error {
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	if code == "" {
		return core.ErrEmptyCurrency
	}
	if c.Scale <= 0 {
		c.Scale = 100
	}
	if c.BaseRate.IsZero() {
		c.BaseRate = decimal.NewFromInt(1)
	}
	err := r.queries.UpsertCurrency(ctx, Currency{
		Code:           code,
		Name:           c.Name,
		PrefixSymbol:   c.PrefixSymbol,
		SuffixSymbol:   c.SuffixSymbol,
		DecimalPoint:   c.DecimalPoint,
		GroupSeparator: c.GroupSeparator,
		Scale:          c.Scale,
		BaseRate:       c.BaseRate.String(),
	})
	if err != nil {
		return fmt.Errorf("upsert currency %s: %w", code, err)
	}
	return nil
}

func (r *SQLiteRepository) SetBaseCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return core.ErrEmptyCurrency
	}
	return r.queries.SetSetting(ctx, SetSettingParams{Name: BaseCurrencySetting, Value: code})
}

func (r *SQLiteRepository) AddAccount(ctx context.Context, name, currencyCode string) (int64, error) {
	id, err := r.queries.CreateAccount(ctx, CreateAccountParams{
		Name:         strings.TrimSpace(name),
		CurrencyCode: strings.ToUpper(strings.TrimSpace(currencyCode)),
	})
	if err != nil {
		return 0, fmt.Errorf("create account %q: %w", name, err)
	}
	return id, nil
}

// AddTransaction stores t and its splits atomically. Without an AccountID the
// first account in t.Currency is used, creating one when needed.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	accountID := t.AccountID
	if accountID == 0 {
		accountID, err = accountFor(ctx, q, t.Currency)
		if err != nil {
			return 0, err
		}
	}

	id, err := q.CreateTransaction(ctx, CreateTransactionParams{
		AccountID:     accountID,
		TransDate:     t.Date.String(),
		TransType:     string(t.Type),
		Status:        string(t.Status),
		AmountCents:   t.Amount.Cents,
		CategoryID:    nullID(t.CategoryID),
		SubcategoryID: nullID(t.SubCategoryID),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	for _, s := range t.Splits {
		err := q.CreateSplit(ctx, CreateSplitParams{
			TransactionID: id,
			CategoryID:    s.CategoryID,
			SubcategoryID: nullID(s.SubCategoryID),
			AmountCents:   s.Amount.Cents,
		})
		if err != nil {
			return 0, fmt.Errorf("create split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

func accountFor(ctx context.Context, q *Queries, code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	id, err := q.GetAccountByCurrency(ctx, code)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("find account for %s: %w", code, err)
	}
	id, err = q.CreateAccount(ctx, CreateAccountParams{Name: code + " account", CurrencyCode: code})
	if err != nil {
		return 0, fmt.Errorf("create account for %s: %w", code, err)
	}
	return id, nil
}

func nullID(id int64) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
