// Package reports membuat export roster tagihan (XLSX).
package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"schoolku_finance/internals/features/finance/billings/model"
	billing "schoolku_finance/internals/features/finance/billings/service"
)

const (
	RosterSheet  = "Roster"
	SummarySheet = "Summary"
	XLSXMime     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var rosterHeader = []any{
	"Student ID", "Student Name", "Class ID", "Total Due", "Paid", "Balance", "Status", "Applied Rules", "Last Synced",
}

// BuildRoster membuat workbook berisi sheet Roster (satu baris per siswa)
// dan sheet Summary (angka dashboard).
func BuildRoster(fees []model.StudentFee, totals billing.Totals, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", RosterSheet); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(RosterSheet, "A1", &rosterHeader); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetRowStyle(RosterSheet, 1, 1, bold)

	for i, fee := range fees {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		synced := ""
		if fee.StudentFeeLastSyncedAt != nil {
			synced = fee.StudentFeeLastSyncedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			fee.StudentFeeStudentID,
			fee.StudentFeeStudentName,
			fee.StudentFeeClassID,
			fee.StudentFeeTotalDue.InexactFloat64(),
			fee.StudentFeePaid.InexactFloat64(),
			fee.StudentFeeBalance.InexactFloat64(),
			string(fee.StudentFeeStatus),
			len(fee.StudentFeeAppliedRules),
			synced,
		}
		if err := f.SetSheetRow(RosterSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	summary := [][]any{
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
		{"Students", totals.Students},
		{"Total Due", totals.TotalDue.InexactFloat64()},
		{"Collected", totals.Collected.InexactFloat64()},
		{"Outstanding", totals.Outstanding.InexactFloat64()},
	}
	for _, st := range model.FeeStatuses {
		summary = append(summary, []any{string(st), totals.ByStatus[st]})
	}
	for i, row := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	_ = f.SetColStyle(SummarySheet, "A", bold)
	return f, nil
}

// WriteRoster menulis workbook roster ke w.
func WriteRoster(w io.Writer, fees []model.StudentFee, totals billing.Totals, generatedAt time.Time) error {
	f, err := BuildRoster(fees, totals, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func RosterFilename(at time.Time) string {
	return "student-fees-" + at.UTC().Format("20060102-150405") + ".xlsx"
}
