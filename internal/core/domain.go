package core

import (
	"errors"
	"strings"
	"time"
)

// NoSubCategory marks amounts booked on a category itself rather than on one of
// its children.
const NoSubCategory int64 = -1

const (
	Withdrawal TransactionType = "Withdrawal"
	Deposit    TransactionType = "Deposit"
	Transfer   TransactionType = "Transfer"
)

const (
	StatusNone       Status = ""
	StatusReconciled Status = "R"
	StatusVoid       Status = "V"
	StatusFollowUp   Status = "F"
	StatusDuplicate  Status = "D"
)

type (
	TransactionType string

	Status string

	Date struct {
		time.Time
	}

	SubCategory struct {
		ID   int64
		Name string
	}

	Category struct {
		ID       int64
		Name     string
		Children []SubCategory
	}

	// CategoryTree is the ordered list of top-level categories.
	CategoryTree []Category

	Split struct {
		CategoryID    int64
		SubCategoryID int64
		Amount        Money // always positive, signed by the parent transaction
	}

	Transaction struct {
		ID            int64
		AccountID     int64
		Date          Date
		Type          TransactionType
		Status        Status
		Amount        Money // always positive
		CategoryID    int64
		SubCategoryID int64
		Currency      string
		Splits        []Split
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyCategory    = errors.New("empty category name")
	ErrEmptyCurrency    = errors.New("empty currency code")
	ErrMissingCategory  = errors.New("transaction has neither category nor splits")
	ErrDuplicateCategID = errors.New("duplicate category id")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping the wall-clock date of t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is a later day than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t TransactionType) Valid() bool {
	switch t {
	case Withdrawal, Deposit, Transfer:
		return true
	default:
		return false
	}
}

// SignedAmount returns the amount as it affects the category totals:
// withdrawals are negative, everything else positive.
func (t Transaction) SignedAmount() Money {
	if t.Type == Withdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	if t.Type == Transfer {
		return nil
	}
	if t.CategoryID <= 0 && len(t.Splits) == 0 {
		return ErrMissingCategory
	}
	for _, s := range t.Splits {
		if err := s.Amount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	seen := map[int64]struct{}{}
	for _, sub := range c.Children {
		if strings.TrimSpace(sub.Name) == "" {
			return ErrEmptyCategory
		}
		if _, dup := seen[sub.ID]; dup {
			return ErrDuplicateCategID
		}
		seen[sub.ID] = struct{}{}
	}
	return nil
}

// Find returns the category with the given id.
func (t CategoryTree) Find(id int64) (Category, bool) {
	for _, c := range t {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FullName returns "Category:Sub", or just the category name for NoSubCategory.
// Unknown ids yield an empty string.
func (t CategoryTree) FullName(categoryID, subCategoryID int64) string {
	c, ok := t.Find(categoryID)
	if !ok {
		return ""
	}
	if subCategoryID == NoSubCategory {
		return c.Name
	}
	for _, sub := range c.Children {
		if sub.ID == subCategoryID {
			return c.Name + ":" + sub.Name
		}
	}
	return c.Name
}
