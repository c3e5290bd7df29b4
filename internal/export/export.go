// Package export writes raw expense listings as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet XLSX exports are written to.
const SheetName = "Expenses"

// DateTimeLayout formats the Date column.
const DateTimeLayout = "2006-01-02 15:04:05"

// Header is the column row of every export.
var Header = []string{"Date", "Amount", "Category", "Description"}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (expected csv or xlsx)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName builds a timestamped download name.
func (f Format) FileName(now time.Time) string {
	return fmt.Sprintf("expenses_%s.%s", now.Format("20060102_150405"), f)
}

// Write encodes expenses in the given format. Dates are rendered in loc.
func Write(w io.Writer, f Format, expenses []model.Expense, loc *time.Location) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, expenses, loc)
	case FormatXLSX:
		return WriteXLSX(w, expenses, loc)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func row(e model.Expense, loc *time.Location) []string {
	return []string{
		e.OccurredAt.In(loc).Format(DateTimeLayout),
		e.Amount.StringFixed(2),
		string(e.Category),
		e.Description,
	}
}

// WriteCSV writes a header row followed by one row per expense.
func WriteCSV(w io.Writer, expenses []model.Expense, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		if err := cw.Write(row(e, loc)); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the same columns as WriteCSV into a single worksheet.
// Amounts are stored as numeric cells.
func WriteXLSX(w io.Writer, expenses []model.Expense, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, e := range expenses {
		r := i + 2
		values := row(e, loc)
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", r), values[0]); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
		if err := f.SetCellFloat(SheetName, fmt.Sprintf("B%d", r), e.Amount.InexactFloat64(), -1, 64); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("C%d", r), values[2]); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("D%d", r), values[3]); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
