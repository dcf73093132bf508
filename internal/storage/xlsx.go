package storage

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// XLSXStorage writes records to a single-sheet workbook on Close. Counts
// are numeric cells; absent rank and duration are left blank.
type XLSXStorage struct {
	path    string
	sheet   string
	header  []string
	records []*types.TopicStats
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewXLSXStorage creates a new workbook storage.
func NewXLSXStorage(outputPath string, cfg config.OutputConfig, logger *slog.Logger) (*XLSXStorage, error) {
	if err := ensureDir(outputPath); err != nil {
		return nil, err
	}

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}

	return &XLSXStorage{
		path:   outputPath,
		sheet:  sheet,
		header: types.Columns(cfg.HeaderLang),
		logger: logger.With("component", "xlsx_storage"),
	}, nil
}

func (s *XLSXStorage) Name() string { return "xlsx" }

func (s *XLSXStorage) Store(records []*types.TopicStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *XLSXStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), s.sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, rec := range s.records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rec.Values()
		if err := f.SetSheetRow(s.sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(s.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		s.logger.Warn("freeze header failed", "error", err)
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	s.logger.Info("XLSX written", "path", s.path, "records", len(s.records))
	return nil
}
