package reading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/yanqian/aduba/pkg/errors"
)

var exportHeader = []string{
	"Registrado em",
	"Dispositivo",
	"Umidade (%)",
	"Temperatura (°C)",
	"Umidade do solo (%)",
	"pH",
	"Rotação composteira",
	"Rotação reservatório",
	"Capacidade",
}

var exportColumnWidths = []float64{22, 14, 12, 16, 20, 8, 20, 20, 12}

// Export renders every reading since the given time as an xlsx workbook.
func (s *service) Export(ctx context.Context, userID string, since time.Time) ([]byte, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "user id cannot be empty", nil)
	}
	rows, err := s.repo.ListSince(ctx, userID, s.windowStart(since), 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list readings", err)
	}
	data, err := BuildWorkbook(s.cfg.SheetTitle, rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExport, "failed to build workbook", err)
	}
	return data, nil
}

// BuildWorkbook writes one row per reading under a bold header row.
func BuildWorkbook(sheetTitle string, rows []Reading) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetTitle)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if !strings.EqualFold(sheetTitle, "Sheet1") {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetTitle, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetTitle, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for col, width := range exportColumnWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetTitle, name, name, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.RecordedAt.UTC().Format(time.RFC3339),
			r.DeviceID,
			r.Humidity,
			r.Temperature,
			r.SoilHumidity,
			r.PHLevel,
			r.ComposterRotation,
			r.ReservoirRotation,
			r.CapacityStatus.Localized(),
		}
		if err := f.SetSheetRow(sheetTitle, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
