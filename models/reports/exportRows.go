package reports

import (
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shopspring/decimal"
)

// reportLine is one flattened figure of a daily report.
type reportLine struct {
	Section string `csv:"section"`
	Item    string `csv:"item"`
	Amount  string `csv:"amount"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func dailyReportLines(r *DailyReportResult) []*reportLine {
	rep := r.Report
	lines := []*reportLine{}
	add := func(section string, item string, amount string) {
		lines = append(lines, &reportLine{Section: section, Item: item, Amount: amount})
	}

	add("Report", "Client", r.ClientName)
	add("Report", "Period", rep.SelectedDate)
	add("Report", "Currency", r.Currency)
	add("Status", rep.Status.StatusText, rep.Status.StatusSub)

	add("Revenue", "Total Gross Sales", money(rep.Revenue.TotalGrossSales))
	add("Revenue", "Cash Sales", money(rep.Revenue.CashSales))
	add("Revenue", "Bank Sales", money(rep.Revenue.BankSales))
	add("Revenue", "Credit Sales (pending)", money(rep.Revenue.CreditSales))
	add("Revenue", "Credit Recovery", money(rep.Revenue.CreditRecoveryTotal))
	add("Revenue", "Credit Recovery Cash", money(rep.Revenue.CreditRecoveryCash))
	add("Revenue", "Credit Recovery Bank", money(rep.Revenue.CreditRecoveryBank))
	add("Revenue", "Other Income", money(rep.Revenue.TotalIncome))
	add("Revenue", "Total Revenue Generated", money(rep.Revenue.TotalRevenueGenerated))

	for _, item := range rep.Expenses.Items {
		add("Expenses", item.Key, money(item.Amount))
	}
	add("Expenses", "Total Expense Incurred", money(rep.Expenses.TotalExpenseIncurred))

	for _, item := range rep.Liabilities.Items {
		add("Liabilities", item.Supplier+" created", money(item.Created))
		add("Liabilities", item.Supplier+" paid", money(item.Paid))
		add("Liabilities", item.Supplier+" balance", money(item.Balance))
	}
	if rep.Liabilities.IsSingleDay {
		add("Liabilities", "New Liability", money(rep.Liabilities.TotalNewLiability))
	}
	add("Liabilities", "Supplier Paid", money(rep.Liabilities.TotalSupplierPaid))
	add("Liabilities", "Payable Net", money(rep.Liabilities.PayableNet))

	add("Liquidity", "Cash Balance", money(rep.Liquidity.TotalCashBalance))
	add("Liquidity", "Bank Balance", money(rep.Liquidity.TotalBankBalance))
	add("Liquidity", "Receivable", money(rep.Liquidity.TotalReceivable))
	add("Liquidity", "Payable", money(rep.Liquidity.TotalPayable))
	add("Liquidity", "Total Liquid Funds", money(rep.Liquidity.TotalLiquidFunds))

	add("Cash Check", "Opening Cash", money(rep.CashCheck.OpeningCash))
	add("Cash Check", "Net Cash Position", money(rep.CashCheck.NetCashPosition))
	add("Cash Check", "Expected Drawer", money(rep.CashCheck.ExpectedDrawer))
	add("Cash Check", "Actual Count", money(rep.CashCheck.ActualCount))
	add("Cash Check", "Variance", money(rep.CashCheck.Variance))

	for _, note := range rep.Notes {
		add("Notes", note, "")
	}
	if rep.Meta.AnalystNotes != "" {
		add("Notes", "Analyst", rep.Meta.AnalystNotes)
	}
	add("Meta", "Transactions", decimal.NewFromInt(int64(rep.Meta.Count)).String())
	return lines
}

// ledgerLine is one transaction row of a party ledger export.
type ledgerLine struct {
	Date        string `csv:"date"`
	Type        string `csv:"type"`
	Mode        string `csv:"mode"`
	Category    string `csv:"category"`
	Description string `csv:"description"`
	AmountIn    string `csv:"amount_in"`
	AmountOut   string `csv:"amount_out"`
	Total       string `csv:"total"`
}

func partyLedgerLines(rows []*models.Transaction) []*ledgerLine {
	lines := make([]*ledgerLine, 0, len(rows))
	for _, t := range rows {
		lines = append(lines, &ledgerLine{
			Date:        t.DateKey,
			Type:        string(t.Type),
			Mode:        string(t.Mode),
			Category:    t.Category,
			Description: t.Description,
			AmountIn:    money(t.AmountIn),
			AmountOut:   money(t.AmountOut),
			Total:       money(t.TotalAmount),
		})
	}
	return lines
}
