package report

import (
	"fmt"

	"catreport/internal/daterange"
)

// Definition names one report: what to keep and over which period.
type Definition struct {
	Kind   Kind
	Preset daterange.Preset
}

// Title returns e.g. "Where the Money Goes - Current Month".
func (d Definition) Title() string {
	return d.Kind.Heading() + " - " + d.Preset.Label()
}

// Slug returns "<kind>-<preset>", used for file names and cache keys.
func (d Definition) Slug() string {
	return d.Kind.Slug() + "-" + d.Preset.String()
}

func ParseDefinition(kind, preset string) (Definition, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Definition{}, err
	}
	p, err := daterange.ParsePreset(preset)
	if err != nil {
		return Definition{}, err
	}
	return Definition{Kind: k, Preset: p}, nil
}

// Definitions enumerates every kind × preset pair.
func Definitions() []Definition {
	presets := daterange.Presets()
	defs := make([]Definition, 0, len(Kinds())*len(presets))
	for _, k := range Kinds() {
		for _, p := range presets {
			defs = append(defs, Definition{Kind: k, Preset: p})
		}
	}
	return defs
}

func (d Definition) String() string {
	return fmt.Sprintf("%s/%s", d.Kind.Slug(), d.Preset)
}
