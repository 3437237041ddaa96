// Package services holds operations that move ledger data between backends.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/ledger"
	"catreport/internal/log"
)

// Source is a ledger that can list its raw transactions.
type Source interface {
	ledger.CategoryReader
	ledger.CurrencyReader
	Transactions(ctx context.Context) ([]core.Transaction, error)
}

// Sink is a writable ledger backend (SQLite or Postgres).
type Sink interface {
	AddCategory(ctx context.Context, name string) (int64, error)
	AddSubCategory(ctx context.Context, categoryID int64, name string) (int64, error)
	AddCurrency(ctx context.Context, c currency.Currency) error
	SetBaseCurrency(ctx context.Context, code string) error
	AddTransaction(ctx context.Context, t core.Transaction) (int64, error)
}

// ImporterConfig holds configuration for the importer
type ImporterConfig struct {
	// ProgressEvery logs progress after this many transactions (default: 500)
	ProgressEvery int
}

func DefaultImporterConfig() ImporterConfig {
	return ImporterConfig{ProgressEvery: 500}
}

// ImportResult counts what was written to the sink.
type ImportResult struct {
	Currencies    int
	Categories    int
	SubCategories int
	Transactions  int
}

// Importer copies a ledger into an empty writable backend. Source ids are
// remapped to the ids the sink assigns.
type Importer struct {
	sink   Sink
	config ImporterConfig
	logger *log.Logger
}

func NewImporter(sink Sink, config ImporterConfig, logger *log.Logger) *Importer {
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = DefaultImporterConfig().ProgressEvery
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Importer{sink: sink, config: config, logger: logger.WithComponent(log.ComponentStorage)}
}

// idMap translates source category and sub-category ids to sink ids.
type idMap struct {
	categories    map[int64]int64
	subCategories map[int64]int64
}

func (m idMap) category(id int64) (int64, error) {
	if id <= 0 {
		return 0, nil
	}
	out, ok := m.categories[id]
	if !ok {
		return 0, fmt.Errorf("unknown category id %d", id)
	}
	return out, nil
}

func (m idMap) subCategory(id int64) (int64, error) {
	if id <= 0 {
		return core.NoSubCategory, nil
	}
	out, ok := m.subCategories[id]
	if !ok {
		return 0, fmt.Errorf("unknown sub-category id %d", id)
	}
	return out, nil
}

// Import writes currencies, the category tree and then every transaction.
// It stops at the first failure; the sink keeps what was written before it.
func (i *Importer) Import(ctx context.Context, src Source) (ImportResult, error) {
	start := time.Now()
	var res ImportResult

	table, err := src.Currencies(ctx)
	if err != nil {
		return res, fmt.Errorf("read currencies: %w", err)
	}
	codes := make([]string, 0, len(table.ByCode))
	for code := range table.ByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if err := i.sink.AddCurrency(ctx, table.ByCode[code]); err != nil {
			return res, err
		}
		res.Currencies++
	}
	if err := i.sink.SetBaseCurrency(ctx, table.Base); err != nil {
		return res, err
	}

	tree, err := src.Categories(ctx)
	if err != nil {
		return res, fmt.Errorf("read categories: %w", err)
	}
	ids := idMap{categories: map[int64]int64{}, subCategories: map[int64]int64{}}
	for _, c := range tree {
		id, err := i.sink.AddCategory(ctx, c.Name)
		if err != nil {
			return res, err
		}
		ids.categories[c.ID] = id
		res.Categories++
		for _, s := range c.Children {
			subID, err := i.sink.AddSubCategory(ctx, id, s.Name)
			if err != nil {
				return res, err
			}
			ids.subCategories[s.ID] = subID
			res.SubCategories++
		}
	}

	txns, err := src.Transactions(ctx)
	if err != nil {
		return res, fmt.Errorf("read transactions: %w", err)
	}
	for n, t := range txns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		mapped, err := remap(t, ids)
		if err != nil {
			return res, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		if _, err := i.sink.AddTransaction(ctx, mapped); err != nil {
			return res, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		res.Transactions++
		if (n+1)%i.config.ProgressEvery == 0 {
			i.logger.DebugContext(ctx, "Import progress", "transactions", n+1, "total", len(txns))
		}
	}

	i.logger.InfoContext(ctx, "Ledger imported",
		"currencies", res.Currencies,
		"categories", res.Categories,
		"subcategories", res.SubCategories,
		"transactions", res.Transactions,
		log.FieldBaseCurrency, table.Base,
		log.FieldDuration, time.Since(start).Milliseconds())
	return res, nil
}

// remap rewrites category ids and clears the ids the sink assigns itself.
func remap(t core.Transaction, ids idMap) (core.Transaction, error) {
	var err error
	t.ID, t.AccountID = 0, 0
	if t.CategoryID, err = ids.category(t.CategoryID); err != nil {
		return t, err
	}
	if t.SubCategoryID, err = ids.subCategory(t.SubCategoryID); err != nil {
		return t, err
	}
	splits := make([]core.Split, len(t.Splits))
	for j, s := range t.Splits {
		if s.CategoryID, err = ids.category(s.CategoryID); err != nil {
			return t, err
		}
		if s.SubCategoryID, err = ids.subCategory(s.SubCategoryID); err != nil {
			return t, err
		}
		splits[j] = s
	}
	t.Splits = splits
	return t, nil
}
