package memory

import (
	"github.com/shopspring/decimal"

	"catreport/internal/core"
	"catreport/internal/currency"
)

// Demo returns a small ledger whose transactions fall in the fourteen months
// up to today, so every preset has something to show.
func Demo(today core.Date) *Store {
	b := newTreeBuilder()
	for _, c := range []struct {
		name string
		subs []string
	}{
		{"Automobile", []string{"Fuel", "Maintenance", "Parking"}},
		{"Bills", []string{"Electricity", "Internet", "Water"}},
		{"Food", []string{"Dining Out", "Groceries"}},
		{"Healthcare", nil},
		{"Income", []string{"Bonus", "Salary"}},
		{"Leisure", []string{"Books", "Cinema"}},
	} {
		b.category(c.name)
		for _, s := range c.subs {
			b.sub(c.name, s)
		}
	}

	table := currency.Default()
	usd := table.ByCode["USD"]
	usd.BaseRate = decimal.RequireFromString("0.92")
	table.ByCode["USD"] = usd

	type entry struct {
		day      int
		typ      core.TransactionType
		cents    int64
		cat, sub string
		cur      string
	}
	monthly := []entry{
		{1, core.Deposit, 250000, "Income", "Salary", "EUR"},
		{2, core.Withdrawal, 6520, "Bills", "Electricity", "EUR"},
		{3, core.Withdrawal, 2999, "Bills", "Internet", "EUR"},
		{5, core.Withdrawal, 8340, "Food", "Groceries", "EUR"},
		{9, core.Withdrawal, 4500, "Automobile", "Fuel", "EUR"},
		{12, core.Withdrawal, 3850, "Food", "Dining Out", "EUR"},
		{15, core.Withdrawal, 1200, "Leisure", "Cinema", "USD"},
		{18, core.Withdrawal, 9110, "Food", "Groceries", "EUR"},
		{21, core.Withdrawal, 2500, "Healthcare", "", "EUR"},
		{24, core.Withdrawal, 600, "Automobile", "Parking", "EUR"},
	}

	var txns []core.Transaction
	add := func(t core.Transaction) {
		t.ID = int64(len(txns) + 1)
		txns = append(txns, t)
	}
	for m := 13; m >= 0; m-- {
		first := core.Date{Time: today.AddDate(0, -m, 1-today.Day())}
		for i, e := range monthly {
			d := first.AddDays(e.day - 1)
			if d.After(today) {
				continue
			}
			cat, sub := b.lookup(e.cat, e.sub)
			t := core.Transaction{
				AccountID:     1,
				Date:          d,
				Type:          e.typ,
				Amount:        core.Money{Cents: e.cents + int64(m*37+i*11)%500},
				CategoryID:    cat,
				SubCategoryID: sub,
				Currency:      e.cur,
			}
			add(t)
		}
		if m%6 == 3 {
			cat, sub := b.lookup("Income", "Bonus")
			add(core.Transaction{AccountID: 1, Date: first.AddDays(27), Type: core.Deposit, Amount: core.Money{Cents: 50000}, CategoryID: cat, SubCategoryID: sub, Currency: "EUR"})
		}
	}

	// A split supermarket receipt and a void entry.
	food, groceries := b.lookup("Food", "Groceries")
	books, booksSub := b.lookup("Leisure", "Books")
	add(core.Transaction{
		AccountID: 1, Date: today, Type: core.Withdrawal, Amount: core.Money{Cents: 5400}, Currency: "EUR",
		Splits: []core.Split{
			{CategoryID: food, SubCategoryID: groceries, Amount: core.Money{Cents: 3900}},
			{CategoryID: books, SubCategoryID: booksSub, Amount: core.Money{Cents: 1500}},
		},
	})
	add(core.Transaction{AccountID: 1, Date: today, Type: core.Withdrawal, Status: core.StatusVoid, Amount: core.Money{Cents: 99999}, CategoryID: books, SubCategoryID: booksSub, Currency: "EUR"})

	return New(b.tree(), table, txns)
}
