package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/ledger"
)

var _ ledger.Ledger = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	tree  core.CategoryTree
	table currency.Table
	txns  []core.Transaction
}

// file mirrors the YAML ledger layout.
type (
	file struct {
		BaseCurrency string         `yaml:"base_currency"`
		Currencies   []fileCurrency `yaml:"currencies"`
		Categories   []fileCategory `yaml:"categories"`
		Transactions []fileTxn      `yaml:"transactions"`
	}

	fileCurrency struct {
		Code     string `yaml:"code"`
		Name     string `yaml:"name"`
		Prefix   string `yaml:"prefix"`
		Suffix   string `yaml:"suffix"`
		Decimal  string `yaml:"decimal_point"`
		Group    string `yaml:"group_separator"`
		Scale    int64  `yaml:"scale"`
		BaseRate string `yaml:"base_rate"`
	}

	fileCategory struct {
		Name          string   `yaml:"name"`
		Subcategories []string `yaml:"subcategories"`
	}

	fileTxn struct {
		Date        string      `yaml:"date"`
		Type        string      `yaml:"type"`
		Status      string      `yaml:"status"`
		Amount      string      `yaml:"amount"`
		Category    string      `yaml:"category"`
		Subcategory string      `yaml:"subcategory"`
		Currency    string      `yaml:"currency"`
		Splits      []fileSplit `yaml:"splits"`
	}

	fileSplit struct {
		Category    string `yaml:"category"`
		Subcategory string `yaml:"subcategory"`
		Amount      string `yaml:"amount"`
	}
)

func New(tree core.CategoryTree, table currency.Table, txns []core.Transaction) *Store {
	return &Store{tree: tree, table: table, txns: append([]core.Transaction(nil), txns...)}
}

// NewFromFile loads a YAML ledger. A missing file yields the demo ledger.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || strings.TrimSpace(path) == "" {
		return Demo(core.DateOf(time.Now())), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML ledger document.
func Parse(data []byte) (*Store, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	table := currency.Default()
	for _, fc := range f.Currencies {
		c := table.ByCode[strings.ToUpper(fc.Code)]
		c.Code = strings.ToUpper(strings.TrimSpace(fc.Code))
		if c.Code == "" {
			return nil, core.ErrEmptyCurrency
		}
		if fc.Name != "" {
			c.Name = fc.Name
		}
		if fc.Prefix != "" || fc.Suffix != "" {
			c.PrefixSymbol, c.SuffixSymbol = fc.Prefix, fc.Suffix
		}
		if fc.Decimal != "" {
			c.DecimalPoint = fc.Decimal
		}
		if fc.Group != "" {
			c.GroupSeparator = fc.Group
		}
		if fc.Scale > 0 {
			c.Scale = fc.Scale
		}
		if c.Scale == 0 {
			c.Scale = 100
		}
		if fc.BaseRate != "" {
			rate, err := decimal.NewFromString(fc.BaseRate)
			if err != nil {
				return nil, fmt.Errorf("currency %s: base rate: %w", c.Code, err)
			}
			c.BaseRate = rate
		}
		if c.BaseRate.IsZero() {
			c.BaseRate = decimal.NewFromInt(1)
		}
		table.ByCode[c.Code] = c
	}
	if f.BaseCurrency != "" {
		var err error
		if table, err = table.WithBase(f.BaseCurrency); err != nil {
			return nil, err
		}
	}

	b := newTreeBuilder()
	for _, fc := range f.Categories {
		if strings.TrimSpace(fc.Name) == "" {
			return nil, core.ErrEmptyCategory
		}
		b.category(fc.Name)
		for _, sub := range fc.Subcategories {
			b.sub(fc.Name, sub)
		}
	}

	txns := make([]core.Transaction, 0, len(f.Transactions))
	for i, ft := range f.Transactions {
		t, err := ft.toCore(b, table.Base)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		t.ID = int64(i + 1)
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		txns = append(txns, t)
	}
	return New(b.tree(), table, txns), nil
}

func (ft fileTxn) toCore(b *treeBuilder, base string) (core.Transaction, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(ft.Date))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", ft.Date, err)
	}
	cents, err := core.ParseDecimalToCents(ft.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if cents < 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	cur := strings.ToUpper(strings.TrimSpace(ft.Currency))
	if cur == "" {
		cur = base
	}
	typ := core.TransactionType(ft.Type)
	if typ == "" {
		typ = core.Withdrawal
	}
	t := core.Transaction{
		Date:          core.DateOf(d),
		Type:          typ,
		Status:        core.Status(strings.ToUpper(strings.TrimSpace(ft.Status))),
		Amount:        core.Money{Cents: cents},
		Currency:      cur,
		SubCategoryID: core.NoSubCategory,
	}
	if ft.Category != "" {
		t.CategoryID, t.SubCategoryID = b.lookup(ft.Category, ft.Subcategory)
	}
	for _, fs := range ft.Splits {
		if strings.TrimSpace(fs.Category) == "" {
			return core.Transaction{}, core.ErrMissingCategory
		}
		sc, err := core.ParseDecimalToCents(fs.Amount)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("split: %w", err)
		}
		cat, sub := b.lookup(fs.Category, fs.Subcategory)
		t.Splits = append(t.Splits, core.Split{CategoryID: cat, SubCategoryID: sub, Amount: core.Money{Cents: sc}})
	}
	return t, nil
}

// Append validates and stores a transaction.
func (s *Store) Append(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = int64(len(s.txns) + 1)
	}
	s.txns = append(s.txns, t)
	return nil
}

// Transactions returns a copy of every stored transaction in insertion order.
func (s *Store) Transactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txns))
	for i, t := range s.txns {
		t.Splits = append([]core.Split(nil), t.Splits...)
		out[i] = t
	}
	return out, nil
}

func (s *Store) Categories(_ context.Context) (core.CategoryTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(core.CategoryTree, len(s.tree))
	for i, c := range s.tree {
		c.Children = append([]core.SubCategory(nil), c.Children...)
		out[i] = c
	}
	return out, nil
}

func (s *Store) CategoryStats(_ context.Context, q core.StatsQuery) (core.CategoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.AggregateStats(s.txns, q), nil
}

func (s *Store) Currencies(_ context.Context) (currency.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table, nil
}

// treeBuilder assigns ids in first-seen order and creates categories on demand.
type treeBuilder struct {
	cats  []core.Category
	index map[string]int
	next  int64
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{index: map[string]int{}, next: 1}
}

func (b *treeBuilder) category(name string) int {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)
	if i, ok := b.index[key]; ok {
		return i
	}
	b.cats = append(b.cats, core.Category{ID: b.next, Name: name})
	b.next++
	b.index[key] = len(b.cats) - 1
	return len(b.cats) - 1
}

func (b *treeBuilder) sub(category, name string) int64 {
	i := b.category(category)
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NoSubCategory
	}
	for _, s := range b.cats[i].Children {
		if strings.EqualFold(s.Name, name) {
			return s.ID
		}
	}
	id := b.next
	b.next++
	b.cats[i].Children = append(b.cats[i].Children, core.SubCategory{ID: id, Name: name})
	return id
}

func (b *treeBuilder) lookup(category, sub string) (int64, int64) {
	i := b.category(category)
	return b.cats[i].ID, b.sub(category, sub)
}

func (b *treeBuilder) tree() core.CategoryTree {
	return core.CategoryTree(b.cats)
}
