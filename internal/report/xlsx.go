package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Report"

// RenderXLSX exports the table as a single-sheet workbook. Amounts are numeric
// cells in base-currency major units.
func RenderXLSX(t Table, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	styles, err := newXLSXStyles(f, tbl.BaseScale)
	if err != nil {
		return nil, err
	}

	set := func(cell string, v any, style int) error {
		if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", cell, err)
		}
		if style != 0 {
			if err := f.SetCellStyle(xlsxSheet, cell, cell, style); err != nil {
				return fmt.Errorf("failed to style %s: %w", cell, err)
			}
		}
		return nil
	}

	if err := set("A1", title, styles.title); err != nil {
		return nil, err
	}
	if err := set("A3", "Category", styles.header); err != nil {
		return nil, err
	}
	if err := set("B3", fmt.Sprintf("Amount (%s)", t.BaseCurrency), styles.header); err != nil {
		return nil, err
	}

	row := 4
	for _, r := range t.Rows {
		label, amount := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		switch r.Kind {
		case RuleRow:
			continue
		case GapRow:
			row++
			continue
		case CategoryRow:
			err = set(label, r.Label, styles.italic)
		case CategoryTotalRow:
			err = set(label, r.Label, styles.total)
		default:
			err = set(label, r.Label, 0)
		}
		if err != nil {
			return nil, err
		}
		style := styles.money
		if r.Kind == CategoryTotalRow {
			style = styles.totalMoney
		}
		if err := set(amount, t.Major(r.Amount).InexactFloat64(), style); err != nil {
			return nil, err
		}
		row++
	}

	if err := set(fmt.Sprintf("A%d", row), grandTotalLabel, styles.header); err != nil {
		return nil, err
	}
	if err := set(fmt.Sprintf("B%d", row), t.Major(t.GrandTotal).InexactFloat64(), styles.grandMoney); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(xlsxSheet, "A", "A", 40); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type xlsxStyles struct {
	title, header, italic, total, money, totalMoney, grandMoney int
}

// moneyNumFmt shows as many decimals as the base currency has minor digits.
func moneyNumFmt(scale int64) string {
	if scale <= 0 {
		scale = 100
	}
	num := "#,##0"
	if scale > 1 {
		num += "."
		for s := scale; s > 1; s /= 10 {
			num += "0"
		}
	}
	return num + ";[Red]-" + num
}

func newXLSXStyles(f *excelize.File, scale int64) (xlsxStyles, error) {
	moneyFmt := moneyNumFmt(scale)
	var s xlsxStyles
	for _, def := range []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Border: []excelize.Border{{Type: "bottom", Color: "888888", Style: 1}},
		}},
		{&s.italic, &excelize.Style{Font: &excelize.Font{Italic: true}}},
		{&s.total, &excelize.Style{Font: &excelize.Font{Italic: true, Bold: true, Color: "808080"}}},
		{&s.money, &excelize.Style{CustomNumFmt: &moneyFmt}},
		{&s.totalMoney, &excelize.Style{
			Font:         &excelize.Font{Italic: true, Bold: true, Color: "808080"},
			CustomNumFmt: &moneyFmt,
		}},
		{&s.grandMoney, &excelize.Style{
			Font:         &excelize.Font{Bold: true},
			Border:       []excelize.Border{{Type: "top", Color: "444444", Style: 2}},
			CustomNumFmt: &moneyFmt,
		}},
	} {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return xlsxStyles{}, fmt.Errorf("failed to create style: %w", err)
		}
		*def.dst = id
	}
	return s, nil
}
