package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const scopeSheetName = "Scope of Works"

// GenerateScopeExcel renders a saved scope as a single-sheet workbook with a
// labour, equipment and chemical block followed by the cost summary.
func GenerateScopeExcel(data ScopeExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, scopeSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	sheet := scopeSheetName

	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1]
	widths := []float64{30, 14, 14, 14, 14, 18}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return nil, fmt.Errorf("create section style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#1E3A5F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}
	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}
	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)
	f.SetCellValue(sheet, "A2", "Report: "+sanitizeExcelCell(data.ReportID))
	f.SetCellValue(sheet, "A3", "Date: "+data.CreatedDate)

	row := 5
	writeTable := func(section string, headers []string, rows [][]any) {
		r := fmt.Sprint(row)
		f.SetCellValue(sheet, "A"+r, section)
		f.SetCellStyle(sheet, "A"+r, "A"+r, sectionStyle)
		row++

		r = fmt.Sprint(row)
		for i, h := range headers {
			f.SetCellValue(sheet, columns[i]+r, h)
		}
		f.SetCellStyle(sheet, "A"+r, columns[len(headers)-1]+r, headerStyle)
		row++

		for _, values := range rows {
			r = fmt.Sprint(row)
			for i, v := range values {
				if s, ok := v.(string); ok {
					v = sanitizeExcelCell(s)
				}
				f.SetCellValue(sheet, columns[i]+r, v)
			}
			f.SetCellStyle(sheet, "A"+r, columns[len(headers)-1]+r, cellStyle)
			row++
		}
		row++
	}

	labourRows := make([][]any, 0, len(data.Summary.Labour))
	for _, l := range data.Summary.Labour {
		labourRows = append(labourRows, []any{
			l.Role, round2(l.EffectiveRate), round2(l.EffectiveHours), FormatCurrency(l.Cost),
		})
	}
	writeTable("Labour", []string{"Role", "Rate / hr", "Hours", "Cost"}, labourRows)

	equipmentRows := make([][]any, 0, len(data.Summary.Equipment))
	for i, e := range data.Summary.Equipment {
		var qty int
		var days float64
		if i < len(data.Draft.Equipment) {
			qty = data.Draft.Equipment[i].Quantity
			days = data.Draft.Equipment[i].DurationDays
		}
		tier := e.Tier
		if !e.Known {
			tier = "unknown"
		}
		equipmentRows = append(equipmentRows, []any{
			e.Type, qty, days, tier, e.Periods, FormatCurrency(e.Cost),
		})
	}
	writeTable("Equipment", []string{"Type", "Qty", "Days", "Tier", "Periods", "Cost"}, equipmentRows)

	chemicalRows := make([][]any, 0, len(data.Summary.Chemicals))
	for i, c := range data.Summary.Chemicals {
		var treated float64
		if i < len(data.Draft.Chemicals) {
			treated = data.Draft.Chemicals[i].TreatedArea
		}
		chemicalRows = append(chemicalRows, []any{
			c.Type, treated, c.Rate, FormatCurrency(c.Cost),
		})
	}
	writeTable("Chemicals", []string{"Type", "Area (m²)", "Rate / m²", "Cost"}, chemicalRows)

	p := data.Summary.Productivity
	summary := []struct {
		label string
		value string
	}{
		{"Labour:", FormatCurrency(data.Summary.LabourCost)},
		{"Equipment:", FormatCurrency(data.Summary.EquipmentCost)},
		{"Chemicals:", FormatCurrency(data.Summary.ChemicalCost)},
		{"Total:", FormatCurrency(data.Summary.Total)},
		{"Man-hours:", fmt.Sprintf("%.1f", p.ManHours)},
		{"Duration (days):", fmt.Sprint(p.DurationDays)},
	}
	for _, s := range summary {
		r := fmt.Sprint(row)
		f.SetCellValue(sheet, "E"+r, s.label)
		f.SetCellStyle(sheet, "E"+r, "E"+r, summaryLabelStyle)
		f.SetCellValue(sheet, "F"+r, s.value)
		f.SetCellStyle(sheet, "F"+r, "F"+r, summaryValueStyle)
		row++
	}

	if len(data.Summary.Warnings) > 0 {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sanitizeExcelCell(strings.Join(data.Summary.Warnings, "; ")))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
