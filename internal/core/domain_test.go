package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:       NewDate(2025, 1, 1),
		Type:       Withdrawal,
		Amount:     Money{Cents: 100},
		CategoryID: 1,
		Currency:   "EUR",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	transfer := Transaction{Date: NewDate(2025, 1, 1), Type: Transfer, Amount: Money{Cents: 5}, Currency: "EUR"}
	if err := transfer.Validate(); err != nil {
		t.Fatalf("transfer without category should be ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{}, Type: Deposit, Amount: Money{Cents: 1}, CategoryID: 1, Currency: "EUR"},
		{Date: NewDate(2025, 1, 1), Type: "Gift", Amount: Money{Cents: 1}, CategoryID: 1, Currency: "EUR"},
		{Date: NewDate(2025, 1, 1), Type: Deposit, Amount: Money{Cents: 0}, CategoryID: 1, Currency: "EUR"},
		{Date: NewDate(2025, 1, 1), Type: Deposit, Amount: Money{Cents: 1}, CategoryID: 1, Currency: " "},
		{Date: NewDate(2025, 1, 1), Type: Deposit, Amount: Money{Cents: 1}, Currency: "EUR"},
		{Date: NewDate(2025, 1, 1), Type: Deposit, Amount: Money{Cents: 1}, Currency: "EUR",
			Splits: []Split{{CategoryID: 1, Amount: Money{Cents: -1}}}},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	w := Transaction{Type: Withdrawal, Amount: Money{Cents: 250}}
	d := Transaction{Type: Deposit, Amount: Money{Cents: 250}}
	if got := w.SignedAmount().Cents; got != -250 {
		t.Fatalf("withdrawal signed amount = %d, want -250", got)
	}
	if got := d.SignedAmount().Cents; got != 250 {
		t.Fatalf("deposit signed amount = %d, want 250", got)
	}
}

func TestCategoryTreeFullName(t *testing.T) {
	tree := CategoryTree{
		{ID: 1, Name: "Food", Children: []SubCategory{{ID: 10, Name: "Groceries"}, {ID: 11, Name: "Dining Out"}}},
		{ID: 2, Name: "Income"},
	}
	cases := []struct {
		cat, sub int64
		want     string
	}{
		{1, NoSubCategory, "Food"},
		{1, 10, "Food:Groceries"},
		{1, 11, "Food:Dining Out"},
		{1, 99, "Food"},
		{2, NoSubCategory, "Income"},
		{3, NoSubCategory, ""},
	}
	for _, tc := range cases {
		if got := tree.FullName(tc.cat, tc.sub); got != tc.want {
			t.Errorf("FullName(%d, %d) = %q, want %q", tc.cat, tc.sub, got, tc.want)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", Children: []SubCategory{{ID: 1, Name: "A"}}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty name")
	}
	dup := Category{Name: "Food", Children: []SubCategory{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected error for duplicate sub-category id")
	}
}
