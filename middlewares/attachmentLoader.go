package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/shamseergtct/gtct-analytics/models"
	"gorm.io/gorm"
)

type attachmentReader struct {
	db *gorm.DB
}

func (r *attachmentReader) getAttachments(ctx context.Context, transactionIds []int) []*dataloader.Result[[]*models.Attachment] {
	var results []*models.Attachment
	if err := r.db.WithContext(ctx).Where("transaction_id IN ?", transactionIds).Order("id").Find(&results).Error; err != nil {
		return handleError[[]*models.Attachment](len(transactionIds), err)
	}
	return generateLoaderArrayResults(results, transactionIds, func(a *models.Attachment) int { return a.TransactionId })
}

func GetAttachments(ctx context.Context, transactionId int) ([]*models.Attachment, error) {
	loaders := For(ctx)
	return loaders.attachmentLoader.Load(ctx, transactionId)()
}
