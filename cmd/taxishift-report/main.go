package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/taxishift/internal/shift"
	"github.com/zombor/taxishift/internal/tracker"
)

func main() {
	fs := ff.NewFlagSet("taxishift-report")
	var (
		dbPath   = fs.StringLong("db", "taxishift.db", "Database file path")
		driverID = fs.StringLong("driver", "", "Driver ID to report on")
		xlsxPath = fs.StringLong("xlsx", "", "Also write the history to this XLSX file")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TAXISHIFT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *driverID == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: --driver is required")
		os.Exit(1)
	}

	// bbolt locks the file: this fails after a second while the server has it open
	db, err := tracker.OpenBoltDBReadOnly(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	record, err := db.FindUser(*driverID)
	if err != nil {
		slog.Error("Failed to find driver", "driver_id", *driverID, "error", err)
		os.Exit(1)
	}

	shifts, err := db.LoadShiftHistory(*driverID)
	if err != nil {
		slog.Error("Failed to load shift history", "driver_id", *driverID, "error", err)
		os.Exit(1)
	}
	history := shift.NewHistory(shifts)

	fmt.Printf("Driver: %s (%s), car %s\n\n", record.Name, record.ID, record.CarSideNumber)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tINCOME\tEXPENSES\tCLEAN MONEY\tDAILY %")
	for _, s := range history.Newest() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\n",
			s.Raw.Date,
			shift.FormatAED(s.ShiftTotalIncome),
			shift.FormatAED(s.TotalExpense),
			shift.FormatAED(s.CleanMoney),
			s.DailyPercentage,
		)
	}
	w.Flush()

	fmt.Printf("\nShifts: %d\nTotal clean money: %s\nAverage daily %%: %.1f\n",
		history.Len(), shift.FormatAED(history.TotalCleanMoney()), history.AveragePercentage())

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			slog.Error("Failed to create export file", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := tracker.WriteHistoryXLSX(f, record.User, history.Newest()); err != nil {
			slog.Error("Failed to write export", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		slog.Info("History exported", "path", *xlsxPath, "shifts", history.Len())
	}
}
