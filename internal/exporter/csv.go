package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ashcli/pkg/contracts/domain"
)

// CSVSink writes indicator tables as CSV files under a base directory.
type CSVSink struct {
	dir string
	now func() time.Time
}

// NewCSVSink creates a CSV sink writing into dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir, now: time.Now}
}

// Write renders one table and writes it to a timestamped CSV file. Returns
// the full path of the written file.
func (s *CSVSink) Write(records []domain.BoardRecord, label string) (string, error) {
	headers, rows := buildTable(records, label)
	fullPath := filepath.Join(s.dir, outputName(label, "csv", s.now()))

	slog.Info("Writing CSV file",
		slog.String("label", label),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// UTF-8 BOM helps Excel recognize the encoding
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)

	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return fullPath, nil
}
