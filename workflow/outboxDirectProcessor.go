package workflow

import (
	"context"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OutboxDirectProcessor handles ledger events in-process without Pub/Sub.
// Meant for single-instance and local deployments (OUTBOX_DIRECT_PROCESSING=true).
type OutboxDirectProcessor struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

func NewOutboxDirectProcessor(db *gorm.DB, logger *logrus.Logger) *OutboxDirectProcessor {
	return &OutboxDirectProcessor{
		DB:        db,
		Logger:    logger,
		BatchSize: 50,
		Interval:  2 * time.Second,
		LockTTL:   30 * time.Second,
	}
}

func (p *OutboxDirectProcessor) Run(ctx context.Context) {
	if p == nil || p.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Interval):
		}
	}
}

// ProcessOnce claims due records and runs them through ProcessLedgerEvent.
// It returns how many succeeded.
func (p *OutboxDirectProcessor) ProcessOnce(ctx context.Context) int {
	now := time.Now().UTC()
	staleBefore := now.Add(-p.LockTTL)

	var claimed []models.LedgerEventRecord
	err := p.DB.WithContext(config.WithoutTenantScope(ctx)).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where(`
				(
					processing_status IN ? AND (next_process_attempt_at IS NULL OR next_process_attempt_at <= ?)
				)
				OR
				(
					processing_status = ? AND updated_at <= ?
				)
			`, []string{models.OutboxProcessStatusPending, models.OutboxProcessStatusFailed}, now, models.OutboxProcessStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(p.BatchSize).
			Clauses(lockClause(tx)...)
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		ids := make([]int, 0, len(claimed))
		for _, rec := range claimed {
			ids = append(ids, rec.ID)
		}
		return tx.Model(&models.LedgerEventRecord{}).
			Where("id IN ?", ids).
			Update("processing_status", models.OutboxProcessStatusProcessing).Error
	})
	if err != nil {
		config.LogError(p.Logger, "OutboxDirectProcessor", "ProcessOnce", "claim batch", nil, err)
		return 0
	}

	done := 0
	for _, rec := range claimed {
		if err := ProcessLedgerEvent(ctx, p.Logger, rec.ToMessage()); err != nil {
			if p.Logger != nil {
				p.Logger.WithFields(logrus.Fields{
					"field":     "OutboxDirectProcessor",
					"client_id": rec.ClientId,
					"date_key":  rec.DateKey,
					"record_id": rec.ID,
				}).Error("direct processing failed: " + err.Error())
			}
			continue
		}
		done++
	}
	return done
}
