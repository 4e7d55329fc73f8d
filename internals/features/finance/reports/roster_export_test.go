package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"schoolku_finance/internals/features/finance/billings/model"
	billing "schoolku_finance/internals/features/finance/billings/service"
)

func TestWriteRoster(t *testing.T) {
	fees := []model.StudentFee{
		{
			StudentFeeStudentID: "alice", StudentFeeStudentName: "Alice", StudentFeeClassID: "c1",
			StudentFeeTotalDue: decimal.NewFromInt(100), StudentFeePaid: decimal.NewFromInt(60),
			StudentFeeBalance: decimal.NewFromInt(40), StudentFeeStatus: model.FeeStatusPartial,
		},
		{
			StudentFeeStudentID: "bob", StudentFeeStudentName: "Bob",
			StudentFeeTotalDue: decimal.Zero, StudentFeePaid: decimal.Zero,
			StudentFeeBalance: decimal.Zero, StudentFeeStatus: model.FeeStatusNoFees,
		},
	}
	totals := billing.ComputeTotals(fees)

	var buf bytes.Buffer
	require.NoError(t, WriteRoster(&buf, fees, totals, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Student ID", rows[0][0])
	assert.Equal(t, "alice", rows[1][0])
	assert.Equal(t, "40", rows[1][5])
	assert.Equal(t, "PARTIAL", rows[1][6])

	v, err := f.GetCellValue(SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestRosterFilename(t *testing.T) {
	assert.Equal(t, "student-fees-20260601-083000.xlsx", RosterFilename(time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)))
}
