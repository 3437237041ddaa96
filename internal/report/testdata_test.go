package report

import (
	"catreport/internal/core"
)

// testTree has a category with two children, one with a single child, one
// without children and one that never sees any money.
func testTree() core.CategoryTree {
	return core.CategoryTree{
		{ID: 1, Name: "Auto", Children: []core.SubCategory{{ID: 10, Name: "Fuel"}, {ID: 11, Name: "Parking"}}},
		{ID: 2, Name: "Food", Children: []core.SubCategory{{ID: 20, Name: "Groceries"}}},
		{ID: 3, Name: "Gifts"},
		{ID: 4, Name: "Empty", Children: []core.SubCategory{{ID: 40, Name: "Nothing"}}},
	}
}

func testStats() core.CategoryStats {
	s := make(core.CategoryStats)
	s.Add(1, core.NoSubCategory, "EUR", core.Money{Cents: -500})
	s.Add(1, 10, "EUR", core.Money{Cents: -3000})
	s.Add(1, 11, "USD", core.Money{Cents: -1000})
	s.Add(2, core.NoSubCategory, "EUR", core.Money{Cents: 1500})
	s.Add(2, 20, "EUR", core.Money{Cents: -2000})
	s.Add(3, core.NoSubCategory, "EUR", core.Money{Cents: 10000})
	return s
}
