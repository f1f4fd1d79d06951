// Package export renders availability grids to spreadsheet files the
// scheduling team can share outside the CLI.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/territory-cli/internal/model"
)

// WriteGridXLSX writes an availability grid to an XLSX workbook at
// path. The Grid sheet carries one row per day with a status cell per
// slot; the Options sheet lists every in-range rep behind those cells.
func WriteGridXLSX(path string, days []model.DayAvailability) error {
	f := xlsx.NewFile()

	grid, err := f.AddSheet("Grid")
	if err != nil {
		return eris.Wrap(err, "export: add grid sheet")
	}
	header := grid.AddRow()
	header.AddCell().SetString("Date")
	for _, slot := range model.AllTimeSlots {
		header.AddCell().SetString(string(slot))
	}

	for _, day := range days {
		row := grid.AddRow()
		row.AddCell().SetString(model.FormatDate(day.Date))
		for _, slot := range day.Slots {
			row.AddCell().SetString(formatSlotCell(slot))
		}
	}

	options, err := f.AddSheet("Options")
	if err != nil {
		return eris.Wrap(err, "export: add options sheet")
	}
	optHeader := options.AddRow()
	for _, col := range []string{"Date", "Slot", "Rep", "Distance (mi)", "Anchor"} {
		optHeader.AddCell().SetString(col)
	}
	for _, day := range days {
		for _, slot := range day.Slots {
			for _, opt := range slot.Options {
				row := options.AddRow()
				row.AddCell().SetString(model.FormatDate(day.Date))
				row.AddCell().SetString(string(slot.Slot))
				row.AddCell().SetString(opt.Name)
				row.AddCell().SetFloatWithFormat(opt.DistanceMiles, "0.0")
				row.AddCell().SetString(opt.Anchor.Source.Label())
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func formatSlotCell(slot model.Slot) string {
	if slot.AvailableCount == 0 {
		return string(model.StatusNone)
	}
	return fmt.Sprintf("%s (%d)", slot.Status, slot.AvailableCount)
}
