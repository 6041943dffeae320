package models

import (
	"context"
	"errors"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"gorm.io/gorm"
)

// PostingStatus is the worker-side status of a transaction's latest ledger event.
// Publish states like SENT are not part of it.
type PostingStatus string

const (
	PostingStatusPending    PostingStatus = "PENDING"
	PostingStatusProcessing PostingStatus = "PROCESSING"
	PostingStatusFailed     PostingStatus = "FAILED"
	PostingStatusDead       PostingStatus = "DEAD"
	PostingStatusSucceeded  PostingStatus = "SUCCEEDED"
)

// LedgerEventStatus is a UI-facing view of the latest outbox row for a transaction.
type LedgerEventStatus struct {
	RecordId             int               `json:"record_id"`
	TransactionId        int               `json:"transaction_id"`
	DateKey              string            `json:"date_key"`
	Action               LedgerEventAction `json:"action"`
	PublishStatus        string            `json:"publish_status"`
	PostingStatus        PostingStatus     `json:"posting_status"`
	PublishAttempts      int               `json:"publish_attempts"`
	ProcessAttempts      int               `json:"process_attempts"`
	NextAttemptAt        *time.Time        `json:"next_attempt_at"`
	NextProcessAttemptAt *time.Time        `json:"next_process_attempt_at"`
	LastPublishError     *string           `json:"last_publish_error"`
	LastProcessError     *string           `json:"last_process_error"`
	CreatedAt            time.Time         `json:"created_at"`
	PublishedAt          *time.Time        `json:"published_at"`
	ProcessedAt          *time.Time        `json:"processed_at"`
}

func postingStatusOf(processingStatus string) PostingStatus {
	switch processingStatus {
	case OutboxProcessStatusProcessing:
		return PostingStatusProcessing
	case OutboxProcessStatusFailed:
		return PostingStatusFailed
	case OutboxProcessStatusDead:
		return PostingStatusDead
	case OutboxProcessStatusSucceeded:
		return PostingStatusSucceeded
	default:
		return PostingStatusPending
	}
}

// GetTransactionPostingStatus reports whether the latest change to a transaction
// has reached the dashboard summaries yet.
func GetTransactionPostingStatus(ctx context.Context, clientId string, transactionId int) (*LedgerEventStatus, error) {
	var rec LedgerEventRecord
	if err := config.GetDB().WithContext(ctx).
		Where("client_id = ? AND reference_type = ? AND reference_id = ?", clientId, LedgerReferenceTransaction, transactionId).
		Order("id DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &LedgerEventStatus{
		RecordId:             rec.ID,
		TransactionId:        rec.ReferenceId,
		DateKey:              rec.DateKey,
		Action:               rec.Action,
		PublishStatus:        rec.PublishStatus,
		PostingStatus:        postingStatusOf(rec.ProcessingStatus),
		PublishAttempts:      rec.PublishAttempts,
		ProcessAttempts:      rec.ProcessAttempts,
		NextAttemptAt:        rec.NextAttemptAt,
		NextProcessAttemptAt: rec.NextProcessAttemptAt,
		LastPublishError:     rec.LastPublishError,
		LastProcessError:     rec.LastProcessError,
		CreatedAt:            rec.CreatedAt,
		PublishedAt:          rec.PublishedAt,
		ProcessedAt:          rec.ProcessedAt,
	}, nil
}
