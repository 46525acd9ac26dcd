// Package export renders event listings as downloadable XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"roomly/internal/models"
)

var eventColumns = []string{
	"ID", "Name", "Date", "Start", "End", "Room ID", "Author ID", "Attendees", "Recurring",
}

// WriteEventsXLSX writes the events as a single-sheet workbook.
func WriteEventsXLSX(w io.Writer, events []models.Event) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Events"
	f.SetSheetName("Sheet1", sheet)

	if err := writeRow(f, sheet, 1, headerCells()); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(eventColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}

	for i, ev := range events {
		cells := []interface{}{
			ev.ID,
			ev.Name,
			ev.Date.Format("2006-01-02"),
			ev.TimeStart.String(),
			ev.TimeEnd.String(),
			ev.RoomID,
			ev.AuthorID,
			len(ev.EmployeeIDs),
			ev.HasRecurrence(),
		}
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerCells() []interface{} {
	cells := make([]interface{}, len(eventColumns))
	for i, c := range eventColumns {
		cells[i] = c
	}
	return cells
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, val := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
