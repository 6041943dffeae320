package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shamseergtct/gtct-analytics/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const clientId = "client-1"

func createTxn(t *testing.T, ctx context.Context, input models.NewTransaction) *models.Transaction {
	t.Helper()
	txn, err := models.CreateTransaction(ctx, &input)
	require.NoError(t, err)
	return txn
}

func zeroVat() *utils.Amount {
	a := utils.NewAmount(decimal.Zero)
	return &a
}

func amt(t *testing.T, s string) utils.Amount {
	return utils.NewAmount(testutil.Dec(t, s))
}

func eventFor(t *testing.T, db *gorm.DB, txnId int, action models.LedgerEventAction) models.LedgerEventRecord {
	t.Helper()
	var rec models.LedgerEventRecord
	require.NoError(t, db.Where("reference_id = ? AND action = ?", txnId, action).Take(&rec).Error)
	return rec
}

func seedDay(t *testing.T, db *gorm.DB) (context.Context, []*models.Transaction) {
	t.Helper()
	testutil.SeedClient(t, db, clientId, "Corner Shop")
	customer := testutil.SeedParty(t, db, clientId, "Walk-in", models.PartyTypeCustomer)
	ctx := testutil.ClientContext(clientId, 1)

	txns := []*models.Transaction{
		createTxn(t, ctx, models.NewTransaction{Date: "2024-03-01", Type: models.TransactionTypeSales, Mode: models.PaymentModeCash,
			PartyId: customer.ID, AmountBeforeTax: amt(t, "100"), VatPercent: zeroVat()}),
		createTxn(t, ctx, models.NewTransaction{Date: "2024-03-01", Type: models.TransactionTypeExpense, Mode: models.PaymentModeBank,
			Category: "Electricity", AmountBeforeTax: amt(t, "40"), VatPercent: zeroVat()}),
		createTxn(t, ctx, models.NewTransaction{Date: "2024-03-01", Type: models.TransactionTypeSales, Mode: models.PaymentModeCredit,
			PartyId: customer.ID, AmountBeforeTax: amt(t, "60"), VatPercent: zeroVat()}),
	}
	return ctx, txns
}

func TestBuildDailySummary(t *testing.T) {
	db := testutil.OpenTestDB(t)
	_, txns := seedDay(t, db)

	summary := workflow.BuildDailySummary(clientId, "2024-03-01", txns)
	assert.Equal(t, "100.00", summary.CashIn.StringFixed(2))
	assert.Equal(t, "0.00", summary.CashOut.StringFixed(2))
	assert.Equal(t, "0.00", summary.BankIn.StringFixed(2))
	assert.Equal(t, "40.00", summary.BankOut.StringFixed(2))
	assert.Equal(t, "160.00", summary.TotalSales.StringFixed(2))
	assert.Equal(t, "60.00", summary.CreditSales.StringFixed(2))
	assert.Equal(t, "40.00", summary.TotalExpense.StringFixed(2))
	assert.Equal(t, 3, summary.TransactionCount)
}

func TestProcessLedgerEvent_RebuildsSummaryOnce(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx, txns := seedDay(t, db)
	rec := eventFor(t, db, txns[0].ID, models.LedgerEventActionCreate)

	require.NoError(t, workflow.ProcessLedgerEvent(context.Background(), nil, rec.ToMessage()))
	// redelivery
	require.NoError(t, workflow.ProcessLedgerEvent(context.Background(), nil, rec.ToMessage()))

	summaries, err := models.GetDailySummaries(ctx, clientId, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].TransactionCount)
	assert.Equal(t, "100.00", summaries[0].CashIn.StringFixed(2))

	var keys []models.IdempotencyKey
	require.NoError(t, db.Find(&keys).Error)
	require.Len(t, keys, 1)
	assert.Equal(t, models.IdempotencyStatusSucceeded, keys[0].Status)
	assert.Equal(t, 1, keys[0].Attempts)

	var stored models.LedgerEventRecord
	require.NoError(t, db.Where("id = ?", rec.ID).Take(&stored).Error)
	assert.Equal(t, models.OutboxProcessStatusSucceeded, stored.ProcessingStatus)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestProcessLedgerEvent_DeleteShrinksSummary(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx, txns := seedDay(t, db)

	_, err := models.DeleteTransaction(ctx, txns[0].ID)
	require.NoError(t, err)
	rec := eventFor(t, db, txns[0].ID, models.LedgerEventActionDelete)
	require.NoError(t, workflow.ProcessLedgerEvent(context.Background(), nil, rec.ToMessage()))

	summaries, err := models.GetDailySummaries(ctx, clientId, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].TransactionCount)
	assert.True(t, summaries[0].CashIn.IsZero())
}

func TestProcessLedgerEvent_RejectsInvalidMessage(t *testing.T) {
	testutil.OpenTestDB(t)
	err := workflow.ProcessLedgerEvent(context.Background(), nil, config.LedgerEventMessage{ID: 1, DateKey: "2024-03-01"})
	assert.ErrorIs(t, err, workflow.ErrInvalidLedgerEvent)
	err = workflow.ProcessLedgerEvent(context.Background(), nil, config.LedgerEventMessage{ID: 1, ClientId: clientId, DateKey: "01/03/2024"})
	assert.ErrorIs(t, err, workflow.ErrInvalidLedgerEvent)
}

func TestProcessLedgerEvent_DuplicateDeliveryUnderConcurrency(t *testing.T) {
	db := testutil.OpenTestDB(t)
	_, txns := seedDay(t, db)
	first := eventFor(t, db, txns[0].ID, models.LedgerEventActionCreate).ToMessage()
	second := eventFor(t, db, txns[1].ID, models.LedgerEventActionCreate).ToMessage()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = workflow.ProcessLedgerEvent(context.Background(), nil, first)
			_ = workflow.ProcessLedgerEvent(context.Background(), nil, second)
			_ = workflow.ProcessLedgerEvent(context.Background(), nil, first)
		}()
	}
	wg.Wait()

	var keys []models.IdempotencyKey
	require.NoError(t, db.Order("message_id").Find(&keys).Error)
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.Equal(t, models.IdempotencyStatusSucceeded, k.Status)
		assert.Equal(t, 1, k.Attempts, "message %s", k.MessageId)
	}
}

func TestOutboxDispatcher_PublishAndRetry(t *testing.T) {
	db := testutil.OpenTestDB(t)
	_, txns := seedDay(t, db)

	var mu sync.Mutex
	published := map[int]bool{}
	failing := true
	d := workflow.NewOutboxDispatcher(db, nil)
	d.MaxAttempts = 2
	d.Publish = func(ctx context.Context, msg config.LedgerEventMessage) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if failing && msg.ReferenceId == txns[0].ID {
			return "", errors.New("broker down")
		}
		published[msg.ID] = true
		return "pub-1", nil
	}

	assert.Equal(t, 2, d.DispatchOnce(context.Background()))
	rec := eventFor(t, db, txns[0].ID, models.LedgerEventActionCreate)
	assert.Equal(t, models.OutboxPublishStatusFailed, rec.PublishStatus)
	assert.Equal(t, 1, rec.PublishAttempts)
	require.NotNil(t, rec.NextAttemptAt)
	assert.True(t, rec.NextAttemptAt.After(time.Now().UTC()))

	// not due yet
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.Model(&models.LedgerEventRecord{}).Where("id = ?", rec.ID).Update("next_attempt_at", &past).Error)
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
	rec = eventFor(t, db, txns[0].ID, models.LedgerEventActionCreate)
	assert.Equal(t, models.OutboxPublishStatusDead, rec.PublishStatus)
	require.NotNil(t, rec.LastPublishError)
	assert.Equal(t, "broker down", *rec.LastPublishError)

	sent := eventFor(t, db, txns[1].ID, models.LedgerEventActionCreate)
	assert.Equal(t, models.OutboxPublishStatusSent, sent.PublishStatus)
	require.NotNil(t, sent.PubSubMessageId)
	assert.Equal(t, "pub-1", *sent.PubSubMessageId)
	assert.Nil(t, sent.LockedBy)

	// replay brings the dead row back
	failing = false
	replayed, err := workflow.ReplayOutboxRecord(context.Background(), clientId, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxPublishStatusFailed, replayed.PublishStatus)
	assert.Equal(t, 0, replayed.PublishAttempts)
	assert.Equal(t, 1, d.DispatchOnce(context.Background()))
	assert.True(t, published[rec.ID])
}

func TestReplayOutboxRecord_OtherClient(t *testing.T) {
	db := testutil.OpenTestDB(t)
	_, txns := seedDay(t, db)
	rec := eventFor(t, db, txns[0].ID, models.LedgerEventActionCreate)

	_, err := workflow.ReplayOutboxRecord(context.Background(), "client-2", rec.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
}

func TestOutboxDirectProcessor_ProcessesPending(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx, _ := seedDay(t, db)

	p := workflow.NewOutboxDirectProcessor(db, nil)
	assert.Equal(t, 3, p.ProcessOnce(context.Background()))
	assert.Equal(t, 0, p.ProcessOnce(context.Background()))

	var pending int64
	require.NoError(t, db.Model(&models.LedgerEventRecord{}).
		Where("processing_status <> ?", models.OutboxProcessStatusSucceeded).Count(&pending).Error)
	assert.Zero(t, pending)

	summaries, err := models.GetDailySummaries(ctx, clientId, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "40.00", summaries[0].TotalExpense.StringFixed(2))
}

func TestBackfillDailySummaries(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx, _ := seedDay(t, db)
	stale := &models.DailySummary{ClientId: clientId, DateKey: "2024-02-28", CashIn: decimal.NewFromInt(5), TransactionCount: 1}
	require.NoError(t, models.SaveDailySummary(ctx, db, stale))

	n, err := workflow.BackfillDailySummaries(context.Background(), clientId, "2024-02-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	summaries, err := models.GetDailySummaries(ctx, clientId, "2024-02-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	byDay := map[string]*models.DailySummary{}
	for _, s := range summaries {
		byDay[s.DateKey] = s
	}
	assert.Equal(t, 0, byDay["2024-02-28"].TransactionCount)
	assert.True(t, byDay["2024-02-28"].CashIn.IsZero())
	assert.Equal(t, 3, byDay["2024-03-01"].TransactionCount)

	_, err = workflow.BackfillDailySummaries(context.Background(), clientId, "2024-03-31", "2024-03-01")
	assert.ErrorIs(t, err, utils.ErrInvalidDateRange)
}
