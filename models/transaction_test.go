package models_test

import (
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(t *testing.T, s string) utils.Amount {
	return utils.NewAmount(testutil.Dec(t, s))
}

func TestSplitFlow(t *testing.T) {
	total := decimal.NewFromInt(105)
	cases := []struct {
		typ     models.TransactionType
		mode    models.PaymentMode
		in, out string
	}{
		{models.TransactionTypeSales, models.PaymentModeCash, "105", "0"},
		{models.TransactionTypeReceipt, models.PaymentModeBank, "105", "0"},
		{models.TransactionTypeIncome, models.PaymentModeCash, "105", "0"},
		{models.TransactionTypePurchase, models.PaymentModeBank, "0", "105"},
		{models.TransactionTypeExpense, models.PaymentModeCash, "0", "105"},
		{models.TransactionTypePayment, models.PaymentModeCash, "0", "105"},
		{models.TransactionTypeDrawing, models.PaymentModeCash, "0", "105"},
		{models.TransactionTypeSales, models.PaymentModeCredit, "0", "0"},
		{models.TransactionTypePurchase, models.PaymentModeCredit, "0", "0"},
	}
	for _, tc := range cases {
		in, out := models.SplitFlow(tc.typ, tc.mode, total)
		assert.Equal(t, tc.in, in.String(), "%s/%s in", tc.typ, tc.mode)
		assert.Equal(t, tc.out, out.String(), "%s/%s out", tc.typ, tc.mode)
	}
}

func TestCreateTransaction_DerivesTaxAndFlow(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	customer := testutil.SeedParty(t, db, "client-1", "Acme Trading", models.PartyTypeCustomer)
	ctx := testutil.ClientContext("client-1", 7)

	txn, err := models.CreateTransaction(ctx, &models.NewTransaction{
		Date:            "2024-03-01",
		Type:            models.TransactionTypeSales,
		Mode:            models.PaymentModeCash,
		PartyId:         customer.ID,
		AmountBeforeTax: amount(t, "100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", txn.TaxAmount.StringFixed(2))
	assert.Equal(t, "105.00", txn.TotalAmount.StringFixed(2))
	assert.True(t, txn.AmountIn.Equal(txn.TotalAmount))
	assert.True(t, txn.AmountOut.IsZero())
	assert.Equal(t, "Acme Trading", txn.PartyName)
	assert.Equal(t, models.PartyTypeCustomer, txn.PartyType)
	assert.Equal(t, "2024-03-01", txn.DateKey)
	assert.Equal(t, 7, txn.CreatedBy)

	var events []models.LedgerEventRecord
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.LedgerEventActionCreate, events[0].Action)
	assert.Equal(t, txn.ID, events[0].ReferenceId)
	assert.Equal(t, "2024-03-01", events[0].DateKey)
	assert.Equal(t, models.OutboxPublishStatusPending, events[0].PublishStatus)
	assert.Equal(t, "test-correlation", events[0].CorrelationId)
}

func TestCreateTransaction_PartyRules(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	testutil.SeedClient(t, db, "client-2", "Other Shop")
	supplier := testutil.SeedParty(t, db, "client-1", "Bulk Foods", models.PartyTypeSupplier)
	both := testutil.SeedParty(t, db, "client-1", "Neighbour", models.PartyTypeBoth)
	foreign := testutil.SeedParty(t, db, "client-2", "Elsewhere", models.PartyTypeCustomer)
	ctx := testutil.ClientContext("client-1", 1)

	base := func(typ models.TransactionType, mode models.PaymentMode, partyId int) *models.NewTransaction {
		return &models.NewTransaction{Date: "2024-03-01", Type: typ, Mode: mode, PartyId: partyId, AmountBeforeTax: amount(t, "50")}
	}

	_, err := models.CreateTransaction(ctx, base(models.TransactionTypeSales, models.PaymentModeCash, 0))
	assert.Error(t, err, "sales without party")

	_, err = models.CreateTransaction(ctx, base(models.TransactionTypeSales, models.PaymentModeCash, supplier.ID))
	assert.Error(t, err, "sales to a supplier")

	_, err = models.CreateTransaction(ctx, base(models.TransactionTypeReceipt, models.PaymentModeCash, foreign.ID))
	assert.Error(t, err, "party of another client")

	txn, err := models.CreateTransaction(ctx, base(models.TransactionTypePurchase, models.PaymentModeCredit, both.ID))
	require.NoError(t, err)
	assert.True(t, txn.AmountIn.IsZero())
	assert.True(t, txn.AmountOut.IsZero())
	assert.Equal(t, "52.50", txn.TotalAmount.StringFixed(2))

	zeroVat := amount(t, "0")
	income := base(models.TransactionTypeIncome, models.PaymentModeBank, 0)
	income.VatPercent = &zeroVat
	txn, err = models.CreateTransaction(ctx, income)
	require.NoError(t, err)
	assert.Equal(t, "50", txn.AmountIn.String())

	bad := base(models.TransactionTypeExpense, models.PaymentModeCash, 0)
	bad.AmountBeforeTax = amount(t, "0")
	_, err = models.CreateTransaction(ctx, bad)
	assert.Error(t, err, "zero amount")

	bad = base(models.TransactionTypeExpense, models.PaymentModeCash, 0)
	bad.Date = "01-03-2024"
	_, err = models.CreateTransaction(ctx, bad)
	assert.ErrorIs(t, err, utils.ErrInvalidDateKey)
}

func TestDeleteTransaction_WritesEvent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := testutil.ClientContext("client-1", 1)

	txn, err := models.CreateTransaction(ctx, &models.NewTransaction{
		Date: "2024-03-02", Type: models.TransactionTypeExpense, Mode: models.PaymentModeCash,
		Category: "Rent", AmountBeforeTax: amount(t, "200"),
	})
	require.NoError(t, err)

	_, err = models.DeleteTransaction(testutil.ClientContext("client-2", 1), txn.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	deleted, err := models.DeleteTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, deleted.ID)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEventRecord{}).Where("action = ?", models.LedgerEventActionDelete).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	list, err := models.ListTransactions(ctx, "client-1", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListTransactions_RangeAndOrder(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := testutil.ClientContext("client-1", 1)

	for _, d := range []string{"2024-02-29", "2024-03-01", "2024-03-03", "2024-03-04"} {
		_, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Date: d, Type: models.TransactionTypeIncome, Mode: models.PaymentModeCash, AmountBeforeTax: amount(t, "10"),
		})
		require.NoError(t, err)
	}
	list, err := models.ListTransactions(ctx, "client-1", "2024-03-01", "2024-03-03")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-03", list[0].DateKey)
	assert.Equal(t, "2024-03-01", list[1].DateKey)
}
