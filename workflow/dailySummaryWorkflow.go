package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/shamseergtct/gtct-analytics/utils"
	"gorm.io/gorm"
)

// BuildDailySummary folds one day of transactions with the same rules the
// daily report uses, so the dashboard and the report never disagree.
func BuildDailySummary(clientId string, dateKey string, txns []*models.Transaction) *models.DailySummary {
	report := reports.GenerateReport(txns, reports.SessionInputs{SelectedDateLabel: dateKey, IsSingleDay: true})
	return &models.DailySummary{
		ClientId:         clientId,
		DateKey:          dateKey,
		CashIn:           report.Liquidity.CashIn,
		CashOut:          report.Liquidity.CashOut,
		BankIn:           report.Liquidity.BankIn,
		BankOut:          report.Liquidity.BankOut,
		TotalSales:       report.Revenue.TotalGrossSales,
		CreditSales:      report.Revenue.CreditSales,
		TotalExpense:     report.Expenses.TotalExpenseIncurred,
		TransactionCount: report.Meta.Count,
	}
}

// RebuildDailySummary recomputes the (client, day) summary row from the stored transactions.
func RebuildDailySummary(ctx context.Context, tx *gorm.DB, clientId string, dateKey string) (*models.DailySummary, error) {
	txns, err := models.NewRecordStore(tx).QueryTransactions(ctx, clientId, dateKey, dateKey)
	if err != nil {
		return nil, err
	}
	summary := BuildDailySummary(clientId, dateKey, txns)
	if err := models.SaveDailySummary(ctx, tx, summary); err != nil {
		return nil, fmt.Errorf("save daily summary %s/%s: %w", clientId, dateKey, err)
	}
	return summary, nil
}

// BackfillDailySummaries rebuilds every summary of a client in [fromKey, toKey]
// that has transactions or an existing row. Stale rows are rebuilt to zero.
// It returns the number of days rebuilt.
func BackfillDailySummaries(ctx context.Context, clientId string, fromKey string, toKey string) (int, error) {
	if err := reports.ValidateRange(fromKey, toKey); err != nil {
		return 0, err
	}
	ctx = utils.SetClientIdInContext(ctx, clientId)
	release, err := AcquireClientLock(ctx, clientId)
	if err != nil {
		return 0, err
	}
	defer release()

	db := config.GetDB().WithContext(ctx)
	var txnDays, summaryDays []string
	if err := db.Model(&models.Transaction{}).
		Where("client_id = ? AND date_key BETWEEN ? AND ?", clientId, fromKey, toKey).
		Distinct().Pluck("date_key", &txnDays).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&models.DailySummary{}).
		Where("client_id = ? AND date_key BETWEEN ? AND ?", clientId, fromKey, toKey).
		Pluck("date_key", &summaryDays).Error; err != nil {
		return 0, err
	}
	days := utils.UniqueSlice(append(txnDays, summaryDays...))
	sort.Strings(days)

	for _, day := range days {
		if err := db.Transaction(func(tx *gorm.DB) error {
			_, err := RebuildDailySummary(ctx, tx, clientId, day)
			return err
		}); err != nil {
			return 0, err
		}
	}
	if len(days) > 0 {
		if err := reports.InvalidateClientReports(ctx, clientId); err != nil {
			config.LogError(config.GetLogger(), "DailySummaryWorkflow", "BackfillDailySummaries", "invalidate report cache", clientId, err)
		}
	}
	return len(days), nil
}
