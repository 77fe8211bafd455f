package prompts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/reflectbot/pkg/models"
)

// ImportConfig defines how catalog prompts are read from a spreadsheet.
// Column A holds the category name, column B the prompt text.
type ImportConfig struct {
	FilePath       string // Path to the Excel or CSV file
	CategoryColumn int    // 0-based column with the category
	TextColumn     int    // 0-based column with the prompt text
	SheetName      string // Name of the sheet to import (Excel only)
	StartRow       int    // The row to start importing from (1-based)
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:       path,
		CategoryColumn: 0,
		TextColumn:     1,
		SheetName:      "Sheet1",
		StartRow:       2, // skip the header row
	}
}

// ImportResult holds the outcome of an import operation.
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
	Entries        map[models.Category][]string
}

// ImportPrompts reads extra catalog prompts from an Excel or CSV file.
// Rows with an unknown category or empty text are skipped and reported in
// the result, never failing the whole import.
func ImportPrompts(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := newImportResult()
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.processRow(row, config, i+1)
	}
	return result, nil
}

func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := newImportResult()
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.processRow(row, config, rowNum)
	}
	return result, nil
}

func newImportResult() *ImportResult {
	return &ImportResult{
		Errors:  make([]string, 0),
		Entries: make(map[models.Category][]string),
	}
}

func (r *ImportResult) processRow(row []string, config ImportConfig, rowNum int) {
	r.TotalProcessed++

	var rawCategory, text string
	if config.CategoryColumn < len(row) {
		rawCategory = strings.TrimSpace(row[config.CategoryColumn])
	}
	if config.TextColumn < len(row) {
		text = strings.TrimSpace(row[config.TextColumn])
	}

	if rawCategory == "" && text == "" {
		r.Skipped++
		return
	}

	category := models.Category(strings.ToLower(rawCategory))
	if !category.Valid() {
		r.Skipped++
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: unknown category %q", rowNum, rawCategory))
		return
	}
	if text == "" {
		r.Skipped++
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: empty prompt text", rowNum))
		return
	}

	r.Entries[category] = append(r.Entries[category], text)
	r.Imported++
}
