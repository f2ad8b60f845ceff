package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowError is a single field-level error on one imported row. Row numbers are
// 1-based and count the header, matching what a spreadsheet shows.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MoistureImportResult is returned after parsing a moisture meter export.
type MoistureImportResult struct {
	TotalRows int               `json:"totalRows"`
	ValidRows int               `json:"validRows"`
	ErrorRows int               `json:"errorRows"`
	Errors    []RowError        `json:"errors"`
	Readings  []MoistureReading `json:"readings"`
}

// moistureHeaders maps normalised column headers to reading fields.
var moistureHeaders = map[string]string{
	"location":       "location",
	"surface type":   "surfaceType",
	"surface":        "surfaceType",
	"material":       "surfaceType",
	"level":          "level",
	"moisture level": "level",
	"moisture %":     "level",
	"reading":        "level",
	"depth":          "depth",
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapMoistureHeaders maps each column to a reading field, "" for columns it
// does not recognise.
func mapMoistureHeaders(headers []string) []string {
	mapped := make([]string, len(headers))
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSpace(strings.TrimSuffix(norm, "*"))
		mapped[i] = moistureHeaders[norm]
	}
	return mapped
}

// normalizeDepth accepts any casing of the two depth values. Blank means
// Surface.
func normalizeDepth(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "surface":
		return DepthSurface
	case "subsurface", "sub-surface", "sub surface":
		return DepthSubsurface
	}
	return s
}

// ParseMoistureFile parses a .csv or .xlsx moisture meter export. Valid rows
// become readings; invalid rows are reported per field and skipped. Blank
// rows are ignored.
func ParseMoistureFile(file io.Reader, fileName string) (*MoistureImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columns := mapMoistureHeaders(headers)
	hasLocation, hasLevel := false, false
	for _, c := range columns {
		hasLocation = hasLocation || c == "location"
		hasLevel = hasLevel || c == "level"
	}
	if !hasLocation || !hasLevel {
		return nil, fmt.Errorf("file must have Location and Level columns")
	}

	result := &MoistureImportResult{Errors: []RowError{}, Readings: []MoistureReading{}}
	for i, row := range dataRows {
		rowNum := i + 2
		values := make(map[string]string, len(columns))
		blank := true
		for j, cell := range row {
			if j >= len(columns) || columns[j] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v != "" {
				blank = false
			}
			values[columns[j]] = v
		}
		if blank {
			continue
		}
		result.TotalRows++

		reading := MoistureReading{
			Location:    values["location"],
			SurfaceType: values["surfaceType"],
			Depth:       normalizeDepth(values["depth"]),
		}
		var rowErrs []RowError
		level, perr := strconv.ParseFloat(strings.TrimSuffix(values["level"], "%"), 64)
		if perr != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "level", Message: "must be a number"})
		}
		reading.Level = level

		fields := FieldErrors(ValidateMoisture(reading))
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "level" && perr != nil {
				continue
			}
			rowErrs = append(rowErrs, RowError{Row: rowNum, Field: k, Message: fields[k]})
		}

		if len(rowErrs) > 0 {
			result.ErrorRows++
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		result.ValidRows++
		result.Readings = append(result.Readings, reading)
	}
	return result, nil
}
