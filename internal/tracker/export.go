package tracker

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/taxishift/internal/shift"
)

const exportSheetName = "Shifts"

var exportHeaders = []any{
	"Shift Date", "Recorded At", "Total Amount", "Paid In Careem", "Shift Income",
	"Hired Km", "Vacant Km", "Total Trips", "Booking Trips",
	"Fuel", "Booking", "Normal Trip", "Tollway", "Hala Pack", "Other",
	"Total Expense", "Clean Money", "Daily %",
}

// WriteHistoryXLSX writes shifts as a workbook with one row per shift and a totals row
func WriteHistoryXLSX(w io.Writer, user User, shifts []*shift.CalculatedShift) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Shift history of %s (%s)", user.Name, user.ID),
		Creator: "TaxiShift",
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	if err := f.SetSheetRow(exportSheetName, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	history := shift.NewHistory(shifts)
	for i, s := range shifts {
		row := []any{
			s.Raw.Date,
			s.Timestamp.Format("2006-01-02 15:04"),
			s.Raw.TotalAmount,
			s.Raw.PaidInCareem,
			s.ShiftTotalIncome,
			s.Raw.TotalHiredKm,
			s.Raw.VacantKm,
			s.Raw.TotalTrip,
			s.Raw.BookingTrip,
			s.Expenses.Fuel,
			s.Expenses.Booking,
			s.Expenses.NormalTrip,
			s.Expenses.Tollway,
			s.Expenses.HalaPack,
			s.Expenses.Other,
			s.TotalExpense,
			s.CleanMoney,
			s.DailyPercentage,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return fmt.Errorf("writing shift row: %w", err)
		}
	}

	totalsCell, err := excelize.CoordinatesToCellName(1, len(shifts)+3)
	if err != nil {
		return err
	}
	totals := []any{
		"Total", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "",
		history.TotalCleanMoney(),
		history.AveragePercentage(),
	}
	if err := f.SetSheetRow(exportSheetName, totalsCell, &totals); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
