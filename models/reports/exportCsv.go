package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shamseergtct/gtct-analytics/models"
)

func DailyReportCSV(w io.Writer, r *DailyReportResult) error {
	lines := dailyReportLines(r)
	if err := gocsv.MarshalCSV(lines, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("error writing report csv: %w", err)
	}
	return nil
}

// PartyLedgerCSV writes the ledger rows followed by a summary block.
func PartyLedgerCSV(w io.Writer, r *PartyLedgerResult) error {
	lines := partyLedgerLines(r.Rows)
	lines = append(lines,
		&ledgerLine{Description: "Credit Given", Total: money(r.Summary.CreditGiven)},
		&ledgerLine{Description: "Settled", Total: money(r.Summary.Settled)},
		&ledgerLine{Description: "Pending", Total: money(r.Summary.Pending)},
	)
	if err := gocsv.MarshalCSV(lines, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("error writing party ledger csv: %w", err)
	}
	return nil
}

// TransactionExport is a plain listing of a client's transactions for a range.
type TransactionExport struct {
	ClientId string
	From     string
	To       string
	Rows     []*models.Transaction
}

func (r *TransactionExport) FileName() string {
	return fmt.Sprintf("transactions_%s_%s_%s", r.ClientId, r.From, r.To)
}

func TransactionsCSV(w io.Writer, r *TransactionExport) error {
	if err := gocsv.MarshalCSV(partyLedgerLines(r.Rows), gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("error writing transactions csv: %w", err)
	}
	return nil
}
