// Package postgres is the PostgreSQL ledger backend. It mirrors the SQLite
// repository on top of a pgx connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/ledger"
)

const baseCurrencySetting = "BASECURRENCY"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ ledger.Ledger = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for dsn, pings it and runs the schema migrations.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "Postgres ledger ready", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Repository{pool: pool}, nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Categories(ctx context.Context) (core.CategoryTree, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, s.id, s.name
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		ORDER BY lower(c.name), c.id, lower(s.name) NULLS FIRST, s.id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var tree core.CategoryTree
	for rows.Next() {
		var (
			catID   int64
			catName string
			subID   *int64
			subName *string
		)
		if err := rows.Scan(&catID, &catName, &subID, &subName); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if len(tree) == 0 || tree[len(tree)-1].ID != catID {
			tree = append(tree, core.Category{ID: catID, Name: catName})
		}
		if subID != nil && subName != nil {
			last := &tree[len(tree)-1]
			last.Children = append(last.Children, core.SubCategory{ID: *subID, Name: *subName})
		}
	}
	return tree, rows.Err()
}

// statsSQL reuses $1..$5 in both branches of the union.
const statsSQL = `
SELECT category_id, subcategory_id, currency_code, SUM(amount)::bigint
FROM (
    SELECT t.category_id AS category_id,
           COALESCE(t.subcategory_id, -1) AS subcategory_id,
           a.currency_code AS currency_code,
           CASE WHEN t.trans_type = 'Withdrawal' THEN -t.amount_cents ELSE t.amount_cents END AS amount
    FROM transactions t
    JOIN accounts a ON a.id = t.account_id
    WHERE t.status <> 'V'
      AND t.trans_type <> 'Transfer'
      AND t.category_id IS NOT NULL
      AND NOT EXISTS (SELECT 1 FROM splits s WHERE s.transaction_id = t.id)
      AND (NOT $1::boolean OR t.trans_date BETWEEN $2::date AND $3::date)
      AND (NOT $4::boolean OR t.trans_date <= $5::date)
    UNION ALL
    SELECT s.category_id,
           COALESCE(s.subcategory_id, -1),
           a.currency_code,
           CASE WHEN t.trans_type = 'Withdrawal' THEN -s.amount_cents ELSE s.amount_cents END
    FROM splits s
    JOIN transactions t ON t.id = s.transaction_id
    JOIN accounts a ON a.id = t.account_id
    WHERE t.status <> 'V'
      AND t.trans_type <> 'Transfer'
      AND (NOT $1::boolean OR t.trans_date BETWEEN $2::date AND $3::date)
      AND (NOT $4::boolean OR t.trans_date <= $5::date)
) AS booked
GROUP BY category_id, subcategory_id, currency_code`

func (r *Repository) CategoryStats(ctx context.Context, q core.StatsQuery) (core.CategoryStats, error) {
	rows, err := r.pool.Query(ctx, statsSQL,
		q.WithDate, q.Start.Time, q.End.Time,
		q.IgnoreFuture && !q.Today.IsZero(), q.Today.Time)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	stats := make(core.CategoryStats)
	for rows.Next() {
		var (
			cat, sub, total int64
			code            string
		)
		if err := rows.Scan(&cat, &sub, &code, &total); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.Add(cat, sub, code, core.Money{Cents: total})
	}
	return stats, rows.Err()
}

func (r *Repository) Currencies(ctx context.Context) (currency.Table, error) {
	var base string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE name = $1`, baseCurrencySetting).Scan(&base)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return currency.Table{}, fmt.Errorf("get base currency: %w", err)
	}
	if base == "" {
		base = currency.DefaultBase
	}

	rows, err := r.pool.Query(ctx, `
		SELECT code, name, prefix_symbol, suffix_symbol, decimal_point, group_separator, scale, base_rate::text
		FROM currencies ORDER BY code`)
	if err != nil {
		return currency.Table{}, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var list []currency.Currency
	for rows.Next() {
		var (
			c    currency.Currency
			rate string
		)
		if err := rows.Scan(&c.Code, &c.Name, &c.PrefixSymbol, &c.SuffixSymbol, &c.DecimalPoint, &c.GroupSeparator, &c.Scale, &rate); err != nil {
			return currency.Table{}, fmt.Errorf("scan currency: %w", err)
		}
		if c.BaseRate, err = decimal.NewFromString(rate); err != nil {
			return currency.Table{}, fmt.Errorf("currency %s: base rate %q: %w", c.Code, rate, err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return currency.Table{}, err
	}
	return currency.NewTable(base, list), nil
}

func (r *Repository) AddCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	return id, nil
}

func (r *Repository) AddSubCategory(ctx context.Context, categoryID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subcategories (category_id, name) VALUES ($1, $2) RETURNING id`,
		categoryID, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create subcategory %q: %w", name, err)
	}
	return id, nil
}

// AddCurrency inserts or replaces a currency definition.
func (r *Repository) AddCurrency(ctx context.Context, c currency.Currency) error {
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
	_, err := r.pool.Exec(ctx, `
		INSERT INTO currencies (code, name, prefix_symbol, suffix_symbol, decimal_point, group_separator, scale, base_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			prefix_symbol = EXCLUDED.prefix_symbol,
			suffix_symbol = EXCLUDED.suffix_symbol,
			decimal_point = EXCLUDED.decimal_point,
			group_separator = EXCLUDED.group_separator,
			scale = EXCLUDED.scale,
			base_rate = EXCLUDED.base_rate`,
		code, c.Name, c.PrefixSymbol, c.SuffixSymbol, c.DecimalPoint, c.GroupSeparator, c.Scale, c.BaseRate.String())
	if err != nil {
		return fmt.Errorf("upsert currency %s: %w", code, err)
	}
	return nil
}

func (r *Repository) SetBaseCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return core.ErrEmptyCurrency
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`, baseCurrencySetting, code)
	if err != nil {
		return fmt.Errorf("set base currency: %w", err)
	}
	return nil
}

// AddTransaction stores t and its splits in one database transaction.
func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	accountID := t.AccountID
	if accountID == 0 {
		code := strings.ToUpper(t.Currency)
		err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE currency_code = $1 ORDER BY id LIMIT 1`, code).Scan(&accountID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx,
				`INSERT INTO accounts (name, currency_code) VALUES ($1, $2) RETURNING id`,
				code+" account", code,
			).Scan(&accountID)
		}
		if err != nil {
			return 0, fmt.Errorf("account for %s: %w", code, err)
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (account_id, trans_date, trans_type, status, amount_cents, category_id, subcategory_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		accountID, t.Date.Time, string(t.Type), string(t.Status), t.Amount.Cents,
		nullID(t.CategoryID), nullID(t.SubCategoryID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range t.Splits {
		batch.Queue(`INSERT INTO splits (transaction_id, category_id, subcategory_id, amount_cents) VALUES ($1, $2, $3, $4)`,
			id, s.CategoryID, nullID(s.SubCategoryID), s.Amount.Cents)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("create splits: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

func nullID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
