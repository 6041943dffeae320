package models

import (
	"context"
	"errors"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// Attachment is a receipt file stored in the bucket and linked to a transaction.
type Attachment struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ClientId      string    `gorm:"size:64;not null;index" json:"client_id"`
	TransactionId int       `gorm:"not null;index" json:"transaction_id"`
	ObjectKey     string    `gorm:"size:512;not null" json:"object_key"`
	Url           string    `gorm:"size:1024" json:"url"`
	ThumbnailUrl  string    `gorm:"size:1024" json:"thumbnail_url"`
	MimeType      string    `gorm:"size:100" json:"mime_type"`
	UploadedBy    int       `json:"uploaded_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewAttachment struct {
	TransactionId int    `json:"transaction_id"`
	ObjectKey     string `json:"object_key"`
	ThumbnailKey  string `json:"thumbnail_key"`
	MimeType      string `json:"mime_type"`
}

func CreateAttachment(ctx context.Context, input *NewAttachment) (*Attachment, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if input.ObjectKey == "" {
		return nil, errors.New("object key is required")
	}
	if err := utils.ValidateResourceId[Transaction](ctx, clientId, input.TransactionId); err != nil {
		return nil, errors.New("transaction not found for this client")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	attachment := Attachment{
		ClientId:      clientId,
		TransactionId: input.TransactionId,
		ObjectKey:     input.ObjectKey,
		Url:           utils.BuildObjectAccessURL(input.ObjectKey),
		MimeType:      input.MimeType,
		UploadedBy:    userId,
	}
	if input.ThumbnailKey != "" {
		attachment.ThumbnailUrl = utils.BuildObjectAccessURL(input.ThumbnailKey)
	}
	if err := config.GetDB().WithContext(ctx).Create(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func ListAttachments(ctx context.Context, clientId string, transactionId int) ([]*Attachment, error) {
	var results []*Attachment
	err := config.GetDB().WithContext(ctx).
		Where("client_id = ? AND transaction_id = ?", clientId, transactionId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
