package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"healthmon/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReadingExportHeader 导出表头
var ReadingExportHeader = []string{
	"ID",
	"Patient ID",
	"Heart Rate (bpm)",
	"Temperature (°C)",
	"SpO2 (%)",
	"Timestamp (UTC)",
}

const readingSheetName = "Readings"

// GenerateReadingExport 生成读数导出 Excel 文件，顺序与传入一致（最新在前）
func GenerateReadingExport(items []*domain.SensorReading) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(readingSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ReadingExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(readingSheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(readingSheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{10, 12, 18, 18, 10, 22}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(readingSheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rd := range items {
		row := i + 2 // 第1行是表头
		// 可空列留空单元格
		values := []any{rd.ID, rd.PatientID, rd.HeartRate, nil, nil, nil}
		if rd.Temperature != nil {
			values[3] = *rd.Temperature
		}
		if rd.SpO2 != nil {
			values[4] = *rd.SpO2
		}
		if rd.Timestamp != nil {
			values[5] = rd.Timestamp.UTC().Format("2006-01-02 15:04:05")
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := setCellValue(f, readingSheetName, col+1, row, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(readingSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func setCellValue(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// ExportPatientReadings GET /api/sensor/patient/{patient_id}/export
func (h *SensorHandler) ExportPatientReadings(w http.ResponseWriter, r *http.Request, patientID int) {
	items, err := h.readings.ListByPatient(r.Context(), patientID, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch data")
		return
	}

	data, err := GenerateReadingExport(items)
	if err != nil {
		h.logger.Error("GenerateReadingExport failed",
			zap.Int("patient_id", patientID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=patient-%d-readings.xlsx", patientID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
