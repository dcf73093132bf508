// Package source loads the list of topics to scrape.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Load reads topics from a CSV or XLSX file. The header row is required;
// the column named cfg.Column is used, or the first column when Column is
// empty. Values are trimmed, blanks skipped and duplicates kept once in
// first-seen order.
func Load(cfg config.InputConfig, logger *slog.Logger) ([]string, error) {
	logger = logger.With("component", "source", "path", cfg.Path)

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(cfg.Path, cfg.Sheet)
	default:
		rows, err = readCSVFile(cfg.Path)
	}
	if err != nil {
		return nil, err
	}

	topics, err := extractColumn(rows, cfg.Column, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Path, err)
	}

	logger.Info("topics loaded", "count", len(topics))
	return topics, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topic file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads all records from r, dropping a leading UTF-8 BOM.
func ReadCSV(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func extractColumn(rows [][]string, column string, logger *slog.Logger) ([]string, error) {
	if len(rows) == 0 {
		return nil, types.ErrEmptyInput
	}

	header := rows[0]
	idx := 0
	if column != "" {
		idx = -1
		for i, h := range header {
			if strings.TrimSpace(h) == column {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q (have %s)", types.ErrColumnNotFound, column, strings.Join(header, ", "))
		}
	}

	seen := make(map[string]bool, len(rows))
	topics := make([]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if idx >= len(row) {
			continue
		}
		topic := strings.TrimSpace(row[idx])
		if topic == "" {
			continue
		}
		if seen[topic] {
			logger.Debug("duplicate topic skipped", "topic", topic, "row", i+2)
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}

	if len(topics) == 0 {
		return nil, types.ErrEmptyInput
	}
	return topics, nil
}
