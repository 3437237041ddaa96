// Package chart renders the pie chart that accompanies a category report.
package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-analyze/charts"
)

// MaxSlices is the number of slices drawn before the rest is folded into "Other".
const MaxSlices = 12

const otherLabel = "Other"

var ErrNoData = errors.New("no data to chart")

type Slice struct {
	Label string
	Value float64
}

// Prepare turns signed amounts into drawable slices: absolute values, largest
// first, zero slices dropped and the tail beyond MaxSlices merged.
func Prepare(slices []Slice) []Slice {
	out := make([]Slice, 0, len(slices))
	for _, s := range slices {
		v := math.Abs(s.Value)
		if v == 0 {
			continue
		}
		out = append(out, Slice{Label: s.Label, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })

	if len(out) <= MaxSlices {
		return out
	}
	rest := Slice{Label: otherLabel}
	for _, s := range out[MaxSlices-1:] {
		rest.Value += s.Value
	}
	return append(out[:MaxSlices-1], rest)
}

// Pie renders slices as a PNG pie chart.
func Pie(title string, slices []Slice) ([]byte, error) {
	prepared := Prepare(slices)
	if len(prepared) == 0 {
		return nil, ErrNoData
	}

	values := make([]float64, len(prepared))
	labels := make([]string, len(prepared))
	for i, s := range prepared {
		values[i] = s.Value
		labels[i] = s.Label
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}
