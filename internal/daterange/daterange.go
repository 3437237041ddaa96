// Package daterange resolves the named reporting periods (current month, last
// financial year, ...) into concrete inclusive day ranges.
package daterange

import (
	"errors"
	"fmt"
	"time"

	"catreport/internal/core"
)

const (
	CurrentMonth         Preset = "current_month"
	CurrentMonthToDate   Preset = "current_month_to_date"
	LastMonth            Preset = "last_month"
	Last30Days           Preset = "last_30_days"
	LastYear             Preset = "last_year"
	CurrentYear          Preset = "current_year"
	CurrentYearToDate    Preset = "current_year_to_date"
	LastFinancialYear    Preset = "last_financial_year"
	CurrentFinancialYear Preset = "current_financial_year"
	AllTime              Preset = "all_time"
)

type (
	Preset string

	// Clock returns the current time; tests pin it.
	Clock func() time.Time

	// FinancialYear is the day and month on which a financial year starts.
	FinancialYear struct {
		Day   int
		Month int
	}

	// Range is an inclusive day range. WithDate=false means no date filter.
	Range struct {
		Start    core.Date
		End      core.Date
		WithDate bool
		Preset   Preset
	}
)

var (
	ErrUnknownPreset = errors.New("unknown date range preset")
	ErrInvalidRange  = errors.New("end date before start date")
	ErrInvalidFY     = errors.New("invalid financial year start")
)

var labels = map[Preset]string{
	CurrentMonth:         "Current Month",
	CurrentMonthToDate:   "Current Month to Date",
	LastMonth:            "Last Month",
	Last30Days:           "Last 30 Days",
	LastYear:             "Last Year",
	CurrentYear:          "Current Year",
	CurrentYearToDate:    "Current Year to Date",
	LastFinancialYear:    "Last Financial Year",
	CurrentFinancialYear: "Current Financial Year",
	AllTime:              "Over Time",
}

// Presets returns every preset in display order.
func Presets() []Preset {
	return []Preset{
		CurrentMonth, CurrentMonthToDate, LastMonth, Last30Days,
		LastYear, CurrentYear, CurrentYearToDate,
		LastFinancialYear, CurrentFinancialYear, AllTime,
	}
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := labels[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
	}
	return p, nil
}

// Label is the human readable name used in report titles.
func (p Preset) Label() string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

func (p Preset) String() string { return string(p) }

// DefaultFinancialYear starts on January 1st.
func DefaultFinancialYear() FinancialYear {
	return FinancialYear{Day: 1, Month: 1}
}

func (fy FinancialYear) Validate() error {
	if fy.Month < 1 || fy.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidFY, fy.Month)
	}
	if fy.Day < 1 || fy.Day > 31 {
		return fmt.Errorf("%w: day %d", ErrInvalidFY, fy.Day)
	}
	return nil
}

// startIn returns the financial year start date in the given calendar year,
// clamping the day to the length of the month.
func (fy FinancialYear) startIn(year int) core.Date {
	day := fy.Day
	if last := daysIn(year, time.Month(fy.Month)); day > last {
		day = last
	}
	return core.NewDate(year, fy.Month, day)
}

// Resolve turns a preset into a concrete range relative to clock's today.
func Resolve(p Preset, clock Clock, fy FinancialYear) (Range, error) {
	if clock == nil {
		clock = time.Now
	}
	now := clock()
	today := core.DateOf(now)
	year, month := today.Year(), int(today.Month())
	r := Range{WithDate: true, Preset: p}

	switch p {
	case CurrentMonth:
		r.Start = core.NewDate(year, month, 1)
		r.End = endOfMonth(year, month)
	case CurrentMonthToDate:
		r.Start = core.NewDate(year, month, 1)
		r.End = today
	case LastMonth:
		first := core.NewDate(year, month, 1).AddDate(0, -1, 0)
		r.Start = core.Date{Time: first}
		r.End = endOfMonth(first.Year(), int(first.Month()))
	case Last30Days:
		r.Start = today.AddDays(-30)
		r.End = today
	case LastYear:
		r.Start = core.NewDate(year-1, 1, 1)
		r.End = core.NewDate(year-1, 12, 31)
	case CurrentYear:
		r.Start = core.NewDate(year, 1, 1)
		r.End = core.NewDate(year, 12, 31)
	case CurrentYearToDate:
		r.Start = core.NewDate(year, 1, 1)
		r.End = today
	case CurrentFinancialYear, LastFinancialYear:
		if err := fy.Validate(); err != nil {
			return Range{}, err
		}
		startYear := year
		if today.Before(fy.startIn(year)) {
			startYear--
		}
		if p == LastFinancialYear {
			startYear--
		}
		r.Start = fy.startIn(startYear)
		r.End = fy.startIn(startYear + 1).AddDays(-1)
	case AllTime:
		r.WithDate = false
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, string(p))
	}
	return r, nil
}

// Label names the range in titles: the preset label, or "<start> to <end>"
// for a custom range.
func (r Range) Label() string {
	if r.Preset != "" {
		return r.Preset.Label()
	}
	if !r.WithDate {
		return AllTime.Label()
	}
	return r.Start.String() + " to " + r.End.String()
}

// Custom builds an explicit range.
func Custom(start, end core.Date) (Range, error) {
	if end.Before(start) {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: start, End: end, WithDate: true}, nil
}

// Query converts the range into the statistics filter.
func (r Range) Query(ignoreFuture bool, today core.Date) core.StatsQuery {
	return core.StatsQuery{
		Start:        r.Start,
		End:          r.End,
		WithDate:     r.WithDate,
		IgnoreFuture: ignoreFuture,
		Today:        today,
	}
}

func endOfMonth(year, month int) core.Date {
	return core.NewDate(year, month, daysIn(year, time.Month(month)))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
