package reports_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDailyResult() *reports.DailyReportResult {
	txns := []*models.Transaction{
		{Type: "Sales", Mode: "Cash", AmountIn: d("200")},
		{Type: "Expense", Mode: "Cash", Category: "Rent", AmountOut: d("50")},
	}
	return &reports.DailyReportResult{
		ClientId:   "client-1",
		ClientName: "Corner Shop",
		Currency:   "AED",
		From:       "2024-03-01",
		To:         "2024-03-01",
		Report:     reports.GenerateReport(txns, reports.SessionInputs{SelectedDateLabel: "2024-03-01", ActualCount: d("150"), IsSingleDay: true}),
	}
}

func sampleLedgerResult() *reports.PartyLedgerResult {
	rows := []*models.Transaction{
		{DateKey: "2024-03-02", Type: "Receipt", Mode: "Cash", AmountIn: d("100"), TotalAmount: d("100")},
		{DateKey: "2024-03-01", Type: "Sales", Mode: "Credit", TotalAmount: d("300")},
	}
	return &reports.PartyLedgerResult{
		ClientId:  "client-1",
		PartyId:   3,
		PartyName: "Acme",
		PartyType: models.PartyTypeCustomer,
		From:      "2024-03-01",
		To:        "2024-03-31",
		Rows:      rows,
		Summary:   reports.SummarizePartyLedger(rows, models.PartyTypeCustomer),
	}
}

func TestDailyReportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reports.DailyReportCSV(&buf, sampleDailyResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "section,item,amount", lines[0])
	assert.Contains(t, lines, "Revenue,Cash Sales,200.00")
	assert.Contains(t, lines, "Expenses,Rent,50.00")
	assert.Contains(t, lines, "Cash Check,Expected Drawer,150.00")
	assert.Contains(t, lines, "Liabilities,New Liability,0.00")
}

func TestPartyLedgerCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reports.PartyLedgerCSV(&buf, sampleLedgerResult()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "date,type,mode,category,description,amount_in,amount_out,total\n"))
	assert.Contains(t, out, "2024-03-01,Sales,Credit,,,0.00,0.00,300.00")
	assert.Contains(t, out, ",,,,Pending,,,200.00")
}

func TestDailyReportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reports.DailyReportXLSX(&buf, sampleDailyResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Daily Report")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Section", "Item", "Amount"}, rows[0])
	assert.Equal(t, []string{"Report", "Client", "Corner Shop"}, rows[1])
}

func TestPartyLedgerXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reports.PartyLedgerXLSX(&buf, sampleLedgerResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	pending, err := f.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "200.00", pending)
	date, err := f.GetCellValue("Ledger", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", date)
}

func TestTransactionsExport(t *testing.T) {
	export := &reports.TransactionExport{ClientId: "client-1", From: "2024-03-01", To: "2024-03-02", Rows: sampleLedgerResult().Rows}
	assert.Equal(t, "transactions_client-1_2024-03-01_2024-03-02", export.FileName())

	var buf bytes.Buffer
	require.NoError(t, reports.TransactionsCSV(&buf, export))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-03-02,Receipt,Cash,,,100.00,0.00,100.00", lines[1])

	buf.Reset()
	require.NoError(t, reports.TransactionsXLSX(&buf, export))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
