package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mlaskin/docvision/internal/history"
)

// Service produces XLSX workbooks from extraction results and history.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportHistoryXLSX returns an XLSX workbook (as bytes) with one row per
// recorded extraction run.
func (s *Service) ExportHistoryXLSX(entries []history.Entry) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	headers := []string{"Time", "Identifier", "Mode", "Media Type", "Requested Fields", "Result", "Status", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.CreatedAt.Format(time.RFC3339))
		write(2, e.Identifier)
		write(3, string(e.Mode))
		write(4, e.MediaType)
		write(5, e.Fields)
		write(6, truncate(e.Result, 500))
		write(7, string(e.Status))
		write(8, e.ErrorMsg)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 22) // time
	_ = f.SetColWidth(sheet, "B", "B", 48) // identifier
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 32)
	_ = f.SetColWidth(sheet, "F", "F", 60) // result
	_ = f.SetColWidth(sheet, "G", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.history.ok", "rows", len(entries), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ExportFieldsXLSX returns a workbook with one column per field (in the
// requested order, then any extra keys the model returned) and one row per
// extracted document.
func (s *Service) ExportFieldsXLSX(fieldOrder []string, rows []map[string]any) ([]byte, error) {
	start := time.Now()

	columns := make([]string, 0, len(fieldOrder))
	seen := make(map[string]struct{}, len(fieldOrder))
	for _, name := range fieldOrder {
		columns = append(columns, name)
		seen[name] = struct{}{}
	}
	for _, m := range rows {
		for k := range m {
			if _, ok := seen[k]; !ok {
				columns = append(columns, k)
				seen[k] = struct{}{}
			}
		}
	}

	f := excelize.NewFile()
	const sheet = "Fields"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, m := range rows {
		for c, name := range columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, cellValue(m[name]))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.fields.ok", "rows", len(rows), "columns", len(columns), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// cellValue flattens a parsed JSON value for a spreadsheet cell. Nulls
// become empty cells; nested values fall back to their JSON encoding.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, bool, int, int64:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
