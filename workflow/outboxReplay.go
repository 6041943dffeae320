package workflow

import (
	"context"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// ReplayOutboxRecord makes a FAILED or DEAD record due again on both the
// publish and the processing side. Attempt counters are reset.
func ReplayOutboxRecord(ctx context.Context, clientId string, recordId int) (*models.LedgerEventRecord, error) {
	db := config.GetDB().WithContext(config.WithoutTenantScope(ctx))
	var rec models.LedgerEventRecord
	if err := db.Where("id = ? AND client_id = ?", recordId, clientId).Take(&rec).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"next_attempt_at":    &now,
		"locked_at":          nil,
		"locked_by":          nil,
		"last_publish_error": nil,
	}
	if rec.PublishStatus != models.OutboxPublishStatusSent {
		updates["publish_status"] = models.OutboxPublishStatusFailed
		updates["publish_attempts"] = 0
	}
	if rec.ProcessingStatus != models.OutboxProcessStatusSucceeded {
		updates["processing_status"] = models.OutboxProcessStatusFailed
		updates["process_attempts"] = 0
		updates["next_process_attempt_at"] = &now
		updates["last_process_error"] = nil
	}
	if err := db.Model(&models.LedgerEventRecord{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", rec.ID).Take(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
