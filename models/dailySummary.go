package models

import (
	"context"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailySummary is a small, query-friendly aggregate table used by the dashboard.
//
// Grain: (client_id, date_key). Values are positive amounts.
//
// NOTE: derived data, rebuilt from transactions whenever a ledger event for the day is processed.
type DailySummary struct {
	ClientId         string          `gorm:"primaryKey;size:64" json:"client_id"`
	DateKey          string          `gorm:"primaryKey;size:10" json:"date_key"`
	CashIn           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_in"`
	CashOut          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_out"`
	BankIn           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bank_in"`
	BankOut          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bank_out"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sales"`
	CreditSales      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_sales"`
	TotalExpense     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expense"`
	TransactionCount int             `gorm:"not null;default:0" json:"transaction_count"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// SaveDailySummary replaces the row for (client, day).
func SaveDailySummary(ctx context.Context, tx *gorm.DB, summary *DailySummary) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "date_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cash_in", "cash_out", "bank_in", "bank_out",
			"total_sales", "credit_sales", "total_expense", "transaction_count", "updated_at",
		}),
	}).Create(summary).Error
}

// GetDailySummaries returns the stored summaries for an inclusive date-key range, oldest first.
func GetDailySummaries(ctx context.Context, clientId string, fromKey string, toKey string) ([]*DailySummary, error) {
	var results []*DailySummary
	err := config.GetDB().WithContext(ctx).
		Where("client_id = ? AND date_key BETWEEN ? AND ?", clientId, fromKey, toKey).
		Order("date_key").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
