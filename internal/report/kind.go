// Package report builds the category income/expense report: a table of
// per-category totals in the base currency, a pie chart and an HTML page.
package report

import (
	"errors"
	"fmt"
	"strings"

	"catreport/internal/core"
)

// Kind selects which amounts a report keeps.
type Kind int

const (
	Categories Kind = iota // every amount
	Comes                  // money coming in: positive amounts only
	Goes                   // money going out: negative amounts only
)

var ErrUnknownKind = errors.New("unknown report kind")

var kindSlugs = map[Kind]string{
	Categories: "categories",
	Comes:      "comes",
	Goes:       "goes",
}

var kindHeadings = map[Kind]string{
	Categories: "Categories",
	Comes:      "Where the Money Comes From",
	Goes:       "Where the Money Goes",
}

// Kinds lists every report kind in menu order.
func Kinds() []Kind {
	return []Kind{Categories, Comes, Goes}
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, slug := range kindSlugs {
		if slug == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) Slug() string { return kindSlugs[k] }

func (k Kind) String() string { return k.Slug() }

// Heading is the human-readable report name.
func (k Kind) Heading() string { return kindHeadings[k] }

func (k Kind) Valid() bool {
	_, ok := kindSlugs[k]
	return ok
}

// Filter zeroes amounts the kind does not report on.
func (k Kind) Filter(m core.Money) core.Money {
	switch {
	case k == Goes && m.Cents > 0:
		return core.Money{}
	case k == Comes && m.Cents < 0:
		return core.Money{}
	default:
		return m
	}
}
