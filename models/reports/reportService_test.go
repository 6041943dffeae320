package reports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTransactions struct{}

func (failingTransactions) QueryTransactions(ctx context.Context, clientId string, fromKey string, toKey string) ([]*models.Transaction, error) {
	return nil, errors.New("query transactions: connection refused")
}

func amountOf(t *testing.T, s string) *utils.Amount {
	a := utils.NewAmount(testutil.Dec(t, s))
	return &a
}

func seedDay(t *testing.T) context.Context {
	t.Helper()
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	customer := testutil.SeedParty(t, db, "client-1", "Acme", models.PartyTypeCustomer)
	supplier := testutil.SeedParty(t, db, "client-1", "Bulk Foods", models.PartyTypeSupplier)
	ctx := testutil.ClientContext("client-1", 1)

	zero := utils.NewAmount(testutil.Dec(t, "0"))
	entries := []models.NewTransaction{
		{Date: "2024-03-01", Type: models.TransactionTypeSales, Mode: models.PaymentModeCash, PartyId: customer.ID, AmountBeforeTax: utils.NewAmount(testutil.Dec(t, "200"))},
		{Date: "2024-03-01", Type: models.TransactionTypeSales, Mode: models.PaymentModeCredit, PartyId: customer.ID, AmountBeforeTax: utils.NewAmount(testutil.Dec(t, "300"))},
		{Date: "2024-03-02", Type: models.TransactionTypeReceipt, Mode: models.PaymentModeCash, PartyId: customer.ID, AmountBeforeTax: utils.NewAmount(testutil.Dec(t, "100"))},
		{Date: "2024-03-02", Type: models.TransactionTypePurchase, Mode: models.PaymentModeCredit, PartyId: supplier.ID, AmountBeforeTax: utils.NewAmount(testutil.Dec(t, "500"))},
		{Date: "2024-03-05", Type: models.TransactionTypeIncome, Mode: models.PaymentModeBank, AmountBeforeTax: utils.NewAmount(testutil.Dec(t, "10"))},
	}
	for i := range entries {
		entries[i].VatPercent = &zero
		_, err := models.CreateTransaction(ctx, &entries[i])
		require.NoError(t, err)
	}

	store := models.NewDailySessionStore(db)
	_, err := store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{OpeningCash: amountOf(t, "50")})
	require.NoError(t, err)
	notes := "closing count"
	_, err = store.Upsert(ctx, "client-1", "2024-03-02", models.DailySessionPatch{ActualCashDrawer: amountOf(t, "350"), AnalystNotes: &notes})
	require.NoError(t, err)
	return ctx
}

func TestGetDailyReport_Range(t *testing.T) {
	ctx := seedDay(t)
	svc := reports.NewService(nil)

	result, err := svc.GetDailyReport(ctx, "client-1", "2024-03-01", "2024-03-02")
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, "Corner Shop", result.ClientName)
	assert.Equal(t, "AED", result.Currency)

	r := result.Report
	assert.Equal(t, "2024-03-01 to 2024-03-02", r.SelectedDate)
	assert.Equal(t, 4, r.Meta.Count)
	assertDec(t, "300", r.Revenue.TotalRevenueGenerated, "revenue")
	assertDec(t, "50", r.CashCheck.OpeningCash, "opening from first day")
	assertDec(t, "350", r.CashCheck.ExpectedDrawer, "expectedDrawer")
	assertDec(t, "350", r.CashCheck.ActualCount, "count from last day")
	assert.True(t, r.CashCheck.Healthy)
	assertDec(t, "500", r.Liabilities.TotalNewLiability, "new liability")
	assert.False(t, r.Liabilities.IsSingleDay)
	assert.Equal(t, "closing count", r.Meta.AnalystNotes)
}

func TestGetDailyReport_SingleDayWithoutSession(t *testing.T) {
	ctx := seedDay(t)
	result, err := reports.NewService(nil).GetDailyReport(ctx, "client-1", "2024-03-05", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", result.Report.SelectedDate)
	assert.True(t, result.Report.Liabilities.IsSingleDay)
	assertDec(t, "10", result.Report.Revenue.TotalIncome, "income")
	assertDec(t, "0", result.Report.CashCheck.OpeningCash, "no session means zero opening")
}

func TestGetDailyReport_Preconditions(t *testing.T) {
	ctx := seedDay(t)
	svc := reports.NewService(nil)

	_, err := svc.GetDailyReport(ctx, "client-1", "2024-03-05", "2024-03-01")
	assert.ErrorIs(t, err, utils.ErrInvalidDateRange)
	_, err = svc.GetDailyReport(ctx, "client-1", "2024/03/01", "2024-03-01")
	assert.ErrorIs(t, err, utils.ErrInvalidDateKey)
	_, err = svc.GetDailyReport(ctx, "", "2024-03-01", "2024-03-01")
	assert.Error(t, err)
	_, err = svc.GetDailyReport(ctx, "missing", "2024-03-01", "2024-03-01")
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestGetDailyReport_DegradesOnStoreFailure(t *testing.T) {
	ctx := seedDay(t)
	svc := reports.NewService(nil)
	svc.Transactions = failingTransactions{}

	result, err := svc.GetDailyReport(ctx, "client-1", "2024-03-01", "2024-03-02")
	require.NoError(t, err)
	assert.Contains(t, result.Error, "connection refused")
	assert.Equal(t, 0, result.Report.Meta.Count)
	assert.True(t, result.Report.Revenue.TotalGrossSales.IsZero())
	assert.Equal(t, "2024-03-01 to 2024-03-02", result.Report.SelectedDate)
}

func TestGetPartyLedgerReport(t *testing.T) {
	ctx := seedDay(t)
	svc := reports.NewService(nil)

	parties, err := models.ListParties(ctx, "client-1")
	require.NoError(t, err)
	var acme *models.Party
	for _, p := range parties {
		if p.Name == "Acme" {
			acme = p
		}
	}
	require.NotNil(t, acme)

	result, err := svc.GetPartyLedgerReport(ctx, "client-1", acme.ID, "", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, "Acme", result.PartyName)
	assert.Equal(t, models.PartyTypeCustomer, result.PartyType)
	assert.Len(t, result.Rows, 3)
	assertDec(t, "300", result.Summary.CreditGiven, "creditGiven")
	assertDec(t, "100", result.Summary.Settled, "settled")
	assertDec(t, "200", result.Summary.Pending, "pending")

	// deleted parties are still found by name and keep their stamped type
	_, err = models.DeleteParty(ctx, acme.ID)
	require.NoError(t, err)
	byName, err := svc.GetPartyLedgerReport(ctx, "client-1", 0, "ACME", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, models.PartyTypeCustomer, byName.PartyType)
	assert.Len(t, byName.Rows, 3)

	_, err = svc.GetPartyLedgerReport(ctx, "client-1", 0, "", "2024-03-01", "2024-03-31")
	assert.Error(t, err)
}
