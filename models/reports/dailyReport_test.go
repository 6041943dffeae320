package reports_test

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func sale(mode models.PaymentMode, in string) *models.Transaction {
	t := &models.Transaction{Type: models.TransactionTypeSales, Mode: mode, TotalAmount: d(in)}
	if mode != models.PaymentModeCredit {
		t.AmountIn = d(in)
	}
	return t
}

func TestGenerateReport_Scenario(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Sales", Mode: "Cash", AmountIn: d("200")},
		{Type: "Sales", Mode: "Credit", AmountIn: d("300")},
		{Type: "Receipt", Mode: "Cash", PartyType: "Customer", AmountIn: d("100")},
	}
	r := reports.GenerateReport(txns, reports.SessionInputs{
		SelectedDateLabel: "2024-03-01",
		ActualCount:       d("300"),
		IsSingleDay:       true,
	})

	assertDec(t, "200", r.Revenue.CashSales, "cashSales")
	assertDec(t, "300", r.Revenue.CreditSales, "creditSales")
	assertDec(t, "500", r.Revenue.TotalGrossSales, "totalGrossSales")
	assertDec(t, "100", r.Revenue.CreditRecoveryTotal, "creditRecoveryTotal")
	assertDec(t, "100", r.Revenue.CreditRecoveryCash, "creditRecoveryCash")
	assertDec(t, "300", r.Revenue.TotalRevenueGenerated, "totalRevenueGenerated")
	assertDec(t, "300", r.CashCheck.ExpectedDrawer, "expectedDrawer")
	assertDec(t, "0", r.CashCheck.Variance, "variance")
	assert.True(t, r.Status.Healthy)
	assert.Equal(t, reports.StatusTextHealthy, r.Status.StatusText)
	assert.Equal(t, []string{reports.NoteCreditSalesPending}, r.Notes)
	assert.Equal(t, 3, r.Meta.Count)
	assert.Equal(t, "2024-03-01", r.SelectedDate)
}

func TestGenerateReport_CreditSalesNeverChangeRevenue(t *testing.T) {
	base := []*models.Transaction{
		sale(models.PaymentModeCash, "120"),
		sale(models.PaymentModeBank, "80"),
		{Type: "Receipt", Mode: "Bank", PartyType: "Both", AmountIn: d("45")},
		{Type: "Income", Mode: "Cash", AmountIn: d("15")},
	}
	want := reports.GenerateReport(base, reports.SessionInputs{}).Revenue.TotalRevenueGenerated
	assertDec(t, "260", want, "baseline revenue")

	withCredit := append([]*models.Transaction{}, base...)
	for _, amount := range []string{"1", "999.99", "25000"} {
		withCredit = append(withCredit, sale(models.PaymentModeCredit, amount))
		r := reports.GenerateReport(withCredit, reports.SessionInputs{})
		assertDec(t, want.String(), r.Revenue.TotalRevenueGenerated, "revenue with credit sales")
		assert.True(t, r.Revenue.CreditSales.IsPositive())
		assert.True(t, r.Liquidity.TotalReceivable.Equal(r.Revenue.CreditSales))
	}
}

func TestGenerateReport_LiabilityNetting(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Purchase", Mode: "Credit", PartyName: "Bulk Foods", PartyType: "Supplier", TotalAmount: d("500")},
		{Type: "Payment", Mode: "Cash", PartyName: "Bulk Foods", PartyType: "Supplier", AmountOut: d("200")},
		{Type: "Payment", Mode: "Bank", PartyName: "Fresh Farms", PartyType: "Both", AmountOut: d("50")},
		{Type: "Expense", Mode: "Credit", Description: "Electricity", PartyType: "supplier", TotalAmount: d("75")},
		// customers never create payables
		{Type: "Purchase", Mode: "Credit", PartyName: "Walk-in", PartyType: "Customer", TotalAmount: d("40")},
	}
	r := reports.GenerateReport(txns, reports.SessionInputs{})
	l := r.Liabilities

	require.Len(t, l.Items, 3)
	assert.Equal(t, "Bulk Foods", l.Items[0].Supplier)
	assertDec(t, "500", l.Items[0].Created, "created")
	assertDec(t, "200", l.Items[0].Paid, "paid")
	assertDec(t, "300", l.Items[0].Balance, "balance")
	assert.Equal(t, "Electricity", l.Items[1].Supplier)
	assert.Equal(t, "Fresh Farms", l.Items[2].Supplier)
	assertDec(t, "-50", l.Items[2].Balance, "overpaid balance")

	assertDec(t, "575", l.TotalNewLiability, "totalNewLiability")
	assertDec(t, "250", l.TotalSupplierPaid, "totalSupplierPaid")
	assertDec(t, "325", l.PayableNet, "payableNet")
	assert.True(t, l.PayableNet.Equal(l.TotalNewLiability.Sub(l.TotalSupplierPaid)))
	assertDec(t, "325", r.Liquidity.TotalPayable, "totalPayable")
	assert.Contains(t, r.Notes, reports.NoteNewLiabilities)
	assert.NotContains(t, r.Notes, reports.NotePaymentsExceed)

	// the expense ledger counts credit purchases and payments too, grouped by
	// category or description, never by party
	require.Len(t, r.Expenses.Items, 2)
	assert.Equal(t, "Electricity", r.Expenses.Items[0].Key)
	assertDec(t, "75", r.Expenses.Items[0].Amount, "electricity")
	assert.Equal(t, "Expense", r.Expenses.Items[1].Key)
	assertDec(t, "790", r.Expenses.Items[1].Amount, "uncategorised")
	assertDec(t, "865", r.Expenses.TotalExpenseIncurred, "totalExpenseIncurred")
}

func TestGenerateReport_PaymentsExceedLiabilities(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Payment", Mode: "Cash", PartyName: "Bulk Foods", PartyType: "Supplier", AmountOut: d("80")},
	}
	r := reports.GenerateReport(txns, reports.SessionInputs{OpeningCash: d("100"), ActualCount: d("20")})
	assertDec(t, "-80", r.Liabilities.PayableNet, "payableNet")
	assert.Equal(t, []string{reports.NotePaymentsExceed}, r.Notes)
}

func TestGenerateReport_CashCheck(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Sales", Mode: "Cash", AmountIn: d("50")},
		{Type: "Expense", Mode: "Cash", Category: "Tea", AmountOut: d("30")},
	}
	r := reports.GenerateReport(txns, reports.SessionInputs{OpeningCash: d("100"), ActualCount: d("120")})
	assertDec(t, "20", r.CashCheck.NetCashPosition, "netCashPosition")
	assertDec(t, "120", r.CashCheck.ExpectedDrawer, "expectedDrawer")
	assertDec(t, "0", r.CashCheck.Variance, "variance")
	assert.True(t, r.CashCheck.Healthy)
	assert.Empty(t, r.Notes)

	short := reports.GenerateReport(txns, reports.SessionInputs{OpeningCash: d("100"), ActualCount: d("119.5")})
	assertDec(t, "-0.5", short.CashCheck.Variance, "variance")
	assert.False(t, short.Status.Healthy)
	assert.Equal(t, reports.StatusTextActionRequired, short.Status.StatusText)
	assert.Equal(t, []string{reports.NoteCashVariance}, short.Notes)

	nearly := reports.GenerateReport(txns, reports.SessionInputs{OpeningCash: d("100"), ActualCount: d("120.009")})
	assert.True(t, nearly.CashCheck.Healthy, "variance below one fils is healthy")
}

func TestGenerateReport_Liquidity(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Sales", Mode: "Cash", AmountIn: d("200")},
		{Type: "Sales", Mode: "Bank", AmountIn: d("150")},
		{Type: "Sales", Mode: "Credit", TotalAmount: d("70")},
		{Type: "Drawing", Mode: "Cash", AmountOut: d("25")},
		{Type: "Expense", Mode: "Bank", AmountOut: d("40")},
		{Type: "Purchase", Mode: "Credit", PartyType: "Supplier", PartyName: "Bulk", TotalAmount: d("90")},
	}
	r := reports.GenerateReport(txns, reports.SessionInputs{OpeningCash: d("10"), OpeningBank: d("1000")})
	l := r.Liquidity
	assertDec(t, "200", l.CashIn, "cashIn")
	assertDec(t, "25", l.CashOut, "cashOut")
	assertDec(t, "150", l.BankIn, "bankIn")
	assertDec(t, "40", l.BankOut, "bankOut")
	assertDec(t, "185", l.TotalCashBalance, "totalCashBalance")
	assertDec(t, "1110", l.TotalBankBalance, "totalBankBalance")
	assertDec(t, "70", l.TotalReceivable, "totalReceivable")
	assertDec(t, "90", l.TotalPayable, "totalPayable")
	assertDec(t, "1275", l.TotalLiquidFunds, "totalLiquidFunds")
	assert.True(t, l.RangeLimited)
}

func TestGenerateReport_OrderIndependent(t *testing.T) {
	txns := []*models.Transaction{
		{Type: "Sales", Mode: "Cash", AmountIn: d("10.10")},
		{Type: "Sales", Mode: "Credit", TotalAmount: d("33.33")},
		{Type: "Receipt", Mode: "Bank", PartyType: "Customer", AmountIn: d("5.5")},
		{Type: "Expense", Mode: "Cash", Category: "Rent", AmountOut: d("7.25")},
		{Type: "Expense", Mode: "Cash", Category: "Fuel", AmountOut: d("1.75")},
		{Type: "Purchase", Mode: "Credit", PartyType: "Supplier", PartyName: "B", TotalAmount: d("12")},
		{Type: "Purchase", Mode: "Credit", PartyType: "Supplier", PartyName: "A", TotalAmount: d("8")},
		{Type: "Payment", Mode: "Cash", PartyType: "Supplier", PartyName: "A", AmountOut: d("3")},
		{Type: "Income", Mode: "Bank", AmountIn: d("2.2")},
		nil,
	}
	inputs := reports.SessionInputs{SelectedDateLabel: "2024-03-01 to 2024-03-07", OpeningCash: d("50"), ActualCount: d("48.8")}
	want, err := json.Marshal(reports.GenerateReport(txns, inputs))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*models.Transaction{}, txns...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := json.Marshal(reports.GenerateReport(shuffled, inputs))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestGenerateReport_Empty(t *testing.T) {
	r := reports.GenerateReport(nil, reports.SessionInputs{SelectedDateLabel: "2024-03-01"})
	assert.True(t, r.Status.Healthy)
	assert.Empty(t, r.Expenses.Items)
	assert.Empty(t, r.Liabilities.Items)
	assert.NotNil(t, r.Notes)
	assert.Equal(t, 0, r.Meta.Count)
	assert.True(t, r.Revenue.TotalRevenueGenerated.IsZero())
}
