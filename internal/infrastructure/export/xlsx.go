// Package export writes submissions to spreadsheet files.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/alem-hub/applications-bot/internal/domain/registration"

	"github.com/xuri/excelize/v2"
)

// SheetName is the title of the only sheet in the workbook.
const SheetName = "Все заявки"

// Headers is the fixed first row.
var Headers = []string{
	"ID", "Дата регистрации", "ФИО", "Факультет", "Участвовал ранее",
	"Telegram", "Телефон", "Город", "Файл", "Тип файла",
}

// ErrNoRows is returned when there is nothing to write.
var ErrNoRows = errors.New("export: no rows")

// XLSXWriter renders submissions as an .xlsx workbook.
type XLSXWriter struct{}

// NewXLSXWriter creates a writer.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write renders rows in the given order and writes the workbook to w.
func (x *XLSXWriter) Write(w io.Writer, rows []registration.Submission) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export: stream writer: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}

	for i, s := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			s.ID, s.Timestamp, s.FullName, s.Faculty, s.Participated,
			s.Handle, s.Phone, s.City, s.FileName, s.FileType,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: row %d: %w", s.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
