package core

// CategoryStats maps category id -> sub-category id (NoSubCategory for the
// category itself) -> currency code -> summed amount in that currency.
type CategoryStats map[int64]map[int64]map[string]Money

// StatsQuery selects the transactions that contribute to CategoryStats.
type StatsQuery struct {
	Start        Date
	End          Date
	WithDate     bool
	IgnoreFuture bool
	Today        Date
}

// Add accumulates amount under (categoryID, subCategoryID, currency).
func (s CategoryStats) Add(categoryID, subCategoryID int64, currency string, amount Money) {
	subs, ok := s[categoryID]
	if !ok {
		subs = make(map[int64]map[string]Money)
		s[categoryID] = subs
	}
	byCurrency, ok := subs[subCategoryID]
	if !ok {
		byCurrency = make(map[string]Money)
		subs[subCategoryID] = byCurrency
	}
	byCurrency[currency] = byCurrency[currency].Add(amount)
}

// Get returns the per-currency sums for a (category, sub-category) pair.
// Missing entries yield an empty map.
func (s CategoryStats) Get(categoryID, subCategoryID int64) map[string]Money {
	if subs, ok := s[categoryID]; ok {
		if byCurrency, ok := subs[subCategoryID]; ok {
			return byCurrency
		}
	}
	return map[string]Money{}
}

// Includes reports whether a transaction dated d passes the query's date filters.
func (q StatsQuery) Includes(d Date) bool {
	if q.IgnoreFuture && !q.Today.IsZero() && d.After(q.Today) {
		return false
	}
	if q.WithDate && (d.Before(q.Start) || d.After(q.End)) {
		return false
	}
	return true
}

// AggregateStats sums transactions into CategoryStats the same way the SQL
// backends do: void entries and transfers are skipped, splits are booked on
// their own categories with the parent's sign.
func AggregateStats(txns []Transaction, q StatsQuery) CategoryStats {
	stats := make(CategoryStats)
	for _, t := range txns {
		if t.Status == StatusVoid || t.Type == Transfer {
			continue
		}
		if !q.Includes(t.Date) {
			continue
		}
		if len(t.Splits) > 0 {
			for _, s := range t.Splits {
				amount := s.Amount
				if t.Type == Withdrawal {
					amount = amount.Neg()
				}
				stats.Add(s.CategoryID, normalizeSub(s.SubCategoryID), t.Currency, amount)
			}
			continue
		}
		if t.CategoryID <= 0 {
			continue
		}
		stats.Add(t.CategoryID, normalizeSub(t.SubCategoryID), t.Currency, t.SignedAmount())
	}
	return stats
}

func normalizeSub(id int64) int64 {
	if id <= 0 {
		return NoSubCategory
	}
	return id
}
