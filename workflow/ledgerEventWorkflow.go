package workflow

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const dailySummaryHandler = "DailySummary"

var ErrInvalidLedgerEvent = errors.New("ledger event needs client_id and a valid date_key")

// EventContext scopes ctx to the event's client and marks the work as done by the system.
func EventContext(ctx context.Context, msg config.LedgerEventMessage) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = utils.SetClientIdInContext(ctx, msg.ClientId)
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUsernameInContext(ctx, "System")
	if msg.CorrelationId != "" {
		ctx = utils.SetCorrelationIdInContext(ctx, msg.CorrelationId)
	}
	return ctx
}

// ProcessLedgerEvent rebuilds the daily summary of the event's day. Redelivered
// messages are skipped through the idempotency key, and events of one client
// are handled one at a time.
func ProcessLedgerEvent(ctx context.Context, logger *logrus.Logger, msg config.LedgerEventMessage) error {
	if msg.ClientId == "" || !utils.IsValidDateKey(msg.DateKey) {
		return ErrInvalidLedgerEvent
	}
	ctx = EventContext(ctx, msg)

	release, err := AcquireClientLock(ctx, msg.ClientId)
	if err != nil {
		return err
	}
	defer release()

	messageId := strconv.Itoa(msg.ID)
	markOutboxProcessing(ctx, msg.ID)

	var skipped bool
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip, err := BeginIdempotency(tx, msg.ClientId, dailySummaryHandler, messageId)
		if err != nil {
			return err
		}
		if skip {
			skipped = true
			return nil
		}
		if _, err := RebuildDailySummary(ctx, tx, msg.ClientId, msg.DateKey); err != nil {
			return err
		}
		return MarkIdempotencySucceeded(tx, msg.ClientId, dailySummaryHandler, messageId)
	})
	if err != nil {
		if !errors.Is(err, ErrIdempotencyInProgress) {
			_ = MarkIdempotencyFailed(config.GetDB().WithContext(ctx), msg.ClientId, dailySummaryHandler, messageId, err)
			markOutboxProcessFailure(ctx, logger, msg, err)
		}
		return err
	}

	if !skipped {
		if err := reports.InvalidateClientReports(ctx, msg.ClientId); err != nil {
			config.LogError(logger, "LedgerEventWorkflow", "ProcessLedgerEvent", "invalidate report cache", msg.ClientId, err)
		}
	}
	markOutboxProcessSuccess(ctx, logger, msg)
	return nil
}

type outboxProcessRetryConfig struct {
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func getOutboxProcessRetryConfig() outboxProcessRetryConfig {
	s := config.GetSettings().Outbox
	return outboxProcessRetryConfig{
		maxAttempts: s.ProcessMaxAttempts,
		baseBackoff: time.Duration(s.ProcessBaseBackoffSeconds) * time.Second,
		maxBackoff:  time.Duration(s.ProcessMaxBackoffSeconds) * time.Second,
	}
}

func outboxProcessBackoff(attempt int, cfg outboxProcessRetryConfig) time.Duration {
	if attempt <= 0 {
		return cfg.baseBackoff
	}
	// base * 2^(attempt-1), capped
	delay := time.Duration(float64(cfg.baseBackoff) * math.Pow(2, float64(attempt-1)))
	if delay > cfg.maxBackoff || delay <= 0 {
		return cfg.maxBackoff
	}
	return delay
}

func markOutboxProcessing(ctx context.Context, id int) {
	if id <= 0 {
		return
	}
	_ = config.GetDB().WithContext(ctx).
		Model(&models.LedgerEventRecord{}).
		Where("id = ? AND processing_status <> ?", id, models.OutboxProcessStatusDead).
		Update("processing_status", models.OutboxProcessStatusProcessing).Error
}

// markOutboxProcessFailure returns whether the record is now DEAD.
func markOutboxProcessFailure(ctx context.Context, logger *logrus.Logger, msg config.LedgerEventMessage, err error) bool {
	if msg.ID <= 0 {
		return false
	}
	cfg := getOutboxProcessRetryConfig()
	db := config.GetDB().WithContext(ctx)
	errMsg := err.Error()

	var rec models.LedgerEventRecord
	if qerr := db.Select("id", "client_id", "date_key", "process_attempts").Where("id = ?", msg.ID).First(&rec).Error; qerr != nil {
		_ = db.Model(&models.LedgerEventRecord{}).
			Where("id = ?", msg.ID).
			Updates(map[string]interface{}{
				"last_process_error": &errMsg,
				"processing_status":  models.OutboxProcessStatusFailed,
			}).Error
		return false
	}

	attempts := rec.ProcessAttempts + 1
	status := models.OutboxProcessStatusFailed
	var nextAttemptAt *time.Time
	if attempts >= cfg.maxAttempts {
		status = models.OutboxProcessStatusDead
	} else {
		t := time.Now().UTC().Add(outboxProcessBackoff(attempts, cfg))
		nextAttemptAt = &t
	}
	_ = db.Model(&models.LedgerEventRecord{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"last_process_error":      &errMsg,
			"process_attempts":        attempts,
			"next_process_attempt_at": nextAttemptAt,
			"processing_status":       status,
		}).Error

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":             "OutboxProcessing",
			"client_id":         rec.ClientId,
			"date_key":          rec.DateKey,
			"record_id":         rec.ID,
			"processing_status": status,
			"process_attempts":  attempts,
		}).Error("outbox processing failed: " + errMsg)
	}
	return status == models.OutboxProcessStatusDead
}

func markOutboxProcessSuccess(ctx context.Context, logger *logrus.Logger, msg config.LedgerEventMessage) {
	if msg.ID <= 0 {
		return
	}
	now := time.Now().UTC()
	_ = config.GetDB().WithContext(ctx).Model(&models.LedgerEventRecord{}).
		Where("id = ? AND processing_status <> ?", msg.ID, models.OutboxProcessStatusDead).
		Updates(map[string]interface{}{
			"processing_status":       models.OutboxProcessStatusSucceeded,
			"processed_at":            &now,
			"next_process_attempt_at": nil,
			"last_process_error":      nil,
		}).Error

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":     "OutboxProcessing",
			"client_id": msg.ClientId,
			"date_key":  msg.DateKey,
			"record_id": msg.ID,
		}).Info("outbox processed successfully")
	}
}
