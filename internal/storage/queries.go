package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Currency struct {
	Code           string
	Name           string
	PrefixSymbol   string
	SuffixSymbol   string
	DecimalPoint   string
	GroupSeparator string
	Scale          int64
	BaseRate       string
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name) VALUES (?) RETURNING id
`

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, createCategory, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createSubcategory = `-- name: CreateSubcategory :one
INSERT INTO subcategories (category_id, name) VALUES (?, ?) RETURNING id
`

type CreateSubcategoryParams struct {
	CategoryID int64
	Name       string
}

func (q *Queries) CreateSubcategory(ctx context.Context, arg CreateSubcategoryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSubcategory, arg.CategoryID, arg.Name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listCategoryRows = `-- name: ListCategoryRows :many
SELECT c.id, c.name, s.id, s.name
FROM categories c
LEFT JOIN subcategories s ON s.category_id = c.id
ORDER BY c.name COLLATE NOCASE, c.id, s.name COLLATE NOCASE, s.id
`

type ListCategoryRowsRow struct {
	CategoryID      int64
	CategoryName    string
	SubcategoryID   sql.NullInt64
	SubcategoryName sql.NullString
}

func (q *Queries) ListCategoryRows(ctx context.Context) ([]ListCategoryRowsRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCategoryRowsRow
	for rows.Next() {
		var i ListCategoryRowsRow
		if err := rows.Scan(&i.CategoryID, &i.CategoryName, &i.SubcategoryID, &i.SubcategoryName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCurrency = `-- name: UpsertCurrency :exec
INSERT INTO currencies (code, name, prefix_symbol, suffix_symbol, decimal_point, group_separator, scale, base_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (code) DO UPDATE SET
    name = excluded.name,
    prefix_symbol = excluded.prefix_symbol,
    suffix_symbol = excluded.suffix_symbol,
    decimal_point = excluded.decimal_point,
    group_separator = excluded.group_separator,
    scale = excluded.scale,
    base_rate = excluded.base_rate
`

func (q *Queries) UpsertCurrency(ctx context.Context, arg Currency) error {
	_, err := q.db.ExecContext(ctx, upsertCurrency,
		arg.Code,
		arg.Name,
		arg.PrefixSymbol,
		arg.SuffixSymbol,
		arg.DecimalPoint,
		arg.GroupSeparator,
		arg.Scale,
		arg.BaseRate,
	)
	return err
}

const listCurrencies = `-- name: ListCurrencies :many
SELECT code, name, prefix_symbol, suffix_symbol, decimal_point, group_separator, scale, base_rate
FROM currencies
ORDER BY code
`

func (q *Queries) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := q.db.QueryContext(ctx, listCurrencies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Currency
	for rows.Next() {
		var i Currency
		if err := rows.Scan(
			&i.Code,
			&i.Name,
			&i.PrefixSymbol,
			&i.SuffixSymbol,
			&i.DecimalPoint,
			&i.GroupSeparator,
			&i.Scale,
			&i.BaseRate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (name, currency_code) VALUES (?, ?) RETURNING id
`

type CreateAccountParams struct {
	Name         string
	CurrencyCode string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createAccount, arg.Name, arg.CurrencyCode)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getAccountByCurrency = `-- name: GetAccountByCurrency :one
SELECT id FROM accounts WHERE currency_code = ? ORDER BY id LIMIT 1
`

func (q *Queries) GetAccountByCurrency(ctx context.Context, currencyCode string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getAccountByCurrency, currencyCode)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (account_id, trans_date, trans_type, status, amount_cents, category_id, subcategory_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateTransactionParams struct {
	AccountID     int64
	TransDate     string
	TransType     string
	Status        string
	AmountCents   int64
	CategoryID    sql.NullInt64
	SubcategoryID sql.NullInt64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.AccountID,
		arg.TransDate,
		arg.TransType,
		arg.Status,
		arg.AmountCents,
		arg.CategoryID,
		arg.SubcategoryID,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createSplit = `-- name: CreateSplit :exec
INSERT INTO splits (transaction_id, category_id, subcategory_id, amount_cents) VALUES (?, ?, ?, ?)
`

type CreateSplitParams struct {
	TransactionID int64
	CategoryID    int64
	SubcategoryID sql.NullInt64
	AmountCents   int64
}

func (q *Queries) CreateSplit(ctx context.Context, arg CreateSplitParams) error {
	_, err := q.db.ExecContext(ctx, createSplit, arg.TransactionID, arg.CategoryID, arg.SubcategoryID, arg.AmountCents)
	return err
}

const getSetting = `-- name: GetSetting :one
SELECT value FROM settings WHERE name = ?
`

func (q *Queries) GetSetting(ctx context.Context, name string) (string, error) {
	row := q.db.QueryRowContext(ctx, getSetting, name)
	var value string
	err := row.Scan(&value)
	return value, err
}

const setSetting = `-- name: SetSetting :exec
INSERT INTO settings (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value
`

type SetSettingParams struct {
	Name  string
	Value string
}

func (q *Queries) SetSetting(ctx context.Context, arg SetSettingParams) error {
	_, err := q.db.ExecContext(ctx, setSetting, arg.Name, arg.Value)
	return err
}

// The date and future filters are repeated for both branches of the union.
const categoryStats = `-- name: CategoryStats :many
SELECT category_id, subcategory_id, currency_code, SUM(amount) AS total
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
      AND (? = 0 OR t.trans_date BETWEEN ? AND ?)
      AND (? = 0 OR t.trans_date <= ?)
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
      AND (? = 0 OR t.trans_date BETWEEN ? AND ?)
      AND (? = 0 OR t.trans_date <= ?)
)
GROUP BY category_id, subcategory_id, currency_code
`

type CategoryStatsParams struct {
	WithDate     bool
	StartDate    string
	EndDate      string
	IgnoreFuture bool
	Today        string
}

type CategoryStatsRow struct {
	CategoryID    int64
	SubcategoryID int64
	CurrencyCode  string
	Total         int64
}

func (q *Queries) CategoryStats(ctx context.Context, arg CategoryStatsParams) ([]CategoryStatsRow, error) {
	filter := []interface{}{arg.WithDate, arg.StartDate, arg.EndDate, arg.IgnoreFuture, arg.Today}
	args := append(append([]interface{}{}, filter...), filter...)
	rows, err := q.db.QueryContext(ctx, categoryStats, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryStatsRow
	for rows.Next() {
		var i CategoryStatsRow
		if err := rows.Scan(&i.CategoryID, &i.SubcategoryID, &i.CurrencyCode, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
