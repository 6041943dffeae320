package reports

import (
	"fmt"
	"io"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/xuri/excelize/v2"
)

const excelSheet = "Sheet1"

func cellName(col int, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeSheet(f *excelize.File, sheet string, headings []string, rows [][]interface{}) error {
	for i, h := range headings {
		if err := f.SetCellValue(sheet, cellName(i+1, 1), h); err != nil {
			return err
		}
	}
	for r, values := range rows {
		for c, v := range values {
			if err := f.SetCellValue(sheet, cellName(c+1, r+2), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func closeFile(f *excelize.File) {
	if err := f.Close(); err != nil {
		config.LogError(config.GetLogger(), "reports", "exportExcel", "close workbook", nil, err)
	}
}

// DailyReportXLSX writes the report as one section/item/amount sheet.
func DailyReportXLSX(w io.Writer, r *DailyReportResult) error {
	f := excelize.NewFile()
	defer closeFile(f)

	var rows [][]interface{}
	for _, l := range dailyReportLines(r) {
		rows = append(rows, []interface{}{l.Section, l.Item, l.Amount})
	}
	if err := writeSheet(f, excelSheet, []string{"Section", "Item", "Amount"}, rows); err != nil {
		return fmt.Errorf("error writing report sheet: %w", err)
	}
	if err := f.SetSheetName(excelSheet, "Daily Report"); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func ledgerRows(txns []*models.Transaction) [][]interface{} {
	var rows [][]interface{}
	for _, l := range partyLedgerLines(txns) {
		rows = append(rows, []interface{}{l.Date, l.Type, l.Mode, l.Category, l.Description, l.AmountIn, l.AmountOut, l.Total})
	}
	return rows
}

var ledgerHeadings = []string{"Date", "Type", "Mode", "Category", "Description", "Amount In", "Amount Out", "Total"}

func TransactionsXLSX(w io.Writer, r *TransactionExport) error {
	f := excelize.NewFile()
	defer closeFile(f)

	if err := writeSheet(f, excelSheet, ledgerHeadings, ledgerRows(r.Rows)); err != nil {
		return fmt.Errorf("error writing transactions sheet: %w", err)
	}
	if err := f.SetSheetName(excelSheet, "Transactions"); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// PartyLedgerXLSX writes the ledger rows and a second sheet with the summary.
func PartyLedgerXLSX(w io.Writer, r *PartyLedgerResult) error {
	f := excelize.NewFile()
	defer closeFile(f)

	if err := writeSheet(f, excelSheet, ledgerHeadings, ledgerRows(r.Rows)); err != nil {
		return fmt.Errorf("error writing ledger sheet: %w", err)
	}
	if err := f.SetSheetName(excelSheet, "Ledger"); err != nil {
		return err
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Party", r.PartyName},
		{"Type", string(r.PartyType)},
		{"Period", rangeLabel(r.From, r.To)},
		{"Credit Given", money(r.Summary.CreditGiven)},
		{"Settled", money(r.Summary.Settled)},
		{"Pending", money(r.Summary.Pending)},
		{"Transactions", r.Summary.Count},
	}
	if err := writeSheet(f, "Summary", []string{"Item", "Value"}, summary); err != nil {
		return fmt.Errorf("error writing summary sheet: %w", err)
	}
	_, err := f.WriteTo(w)
	return err
}
