package ledger

import (
	"context"

	"catreport/internal/core"
	"catreport/internal/currency"
)

// Ports for outbound adapters.
type (
	CategoryReader interface {
		// Categories returns the category tree in display order.
		Categories(ctx context.Context) (core.CategoryTree, error)
	}

	// StatsReader provides per category, sub-category and currency sums.
	StatsReader interface {
		CategoryStats(ctx context.Context, q core.StatsQuery) (core.CategoryStats, error)
	}

	CurrencyReader interface {
		Currencies(ctx context.Context) (currency.Table, error)
	}

	// Ledger is everything the category report needs from a data source.
	Ledger interface {
		CategoryReader
		StatsReader
		CurrencyReader
	}
)
