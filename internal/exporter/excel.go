package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"ashcli/pkg/contracts/domain"
)

// ExcelSink writes indicator tables as Excel workbooks under a base
// directory. The combined table becomes one sheet per board plus an
// all-boards sheet; other labels become a single-sheet workbook.
type ExcelSink struct {
	dir string
	now func() time.Time
}

// NewExcelSink creates an Excel sink writing into dir.
func NewExcelSink(dir string) *ExcelSink {
	return &ExcelSink{dir: dir, now: time.Now}
}

// Write renders one table into a timestamped workbook. Returns the full
// path of the written file.
func (s *ExcelSink) Write(records []domain.BoardRecord, label string) (string, error) {
	fullPath := filepath.Join(s.dir, outputName(label, "xlsx", s.now()))

	slog.Info("Writing Excel workbook",
		slog.String("label", label),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if label == combinedLabel {
		if err := s.writeCombined(f, records); err != nil {
			return "", err
		}
	} else {
		if err := writeSheet(f, label, records, label, true); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fullPath, nil
}

// writeCombined lays the workbook out as one sheet per tracked board that
// has rows, then the full table on an "All" sheet.
func (s *ExcelSink) writeCombined(f *excelize.File, records []domain.BoardRecord) error {
	first := true
	for _, board := range domain.TrackedBoards() {
		var rows []domain.BoardRecord
		for _, rec := range records {
			if rec.Board == board {
				rows = append(rows, rec)
			}
		}
		if len(rows) == 0 {
			continue
		}
		if err := writeSheet(f, board.String(), rows, board.String(), first); err != nil {
			return err
		}
		first = false
	}
	return writeSheet(f, "All", records, combinedLabel, first)
}

// writeSheet renders one table onto a named sheet. The first sheet reuses
// the workbook's default sheet instead of adding a new one.
func writeSheet(f *excelize.File, name string, records []domain.BoardRecord, label string, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	headers, rows := buildTable(records, label)
	if err := setRow(f, name, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to build cell reference: %w", err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", rowNum, sheet, err)
	}
	return nil
}
