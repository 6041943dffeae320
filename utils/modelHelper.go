package utils

import (
	"context"
	"errors"

	"github.com/shamseergtct/gtct-analytics/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (client_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, clientId string, id int, associations ...string) (*T, error) {
	dbCtx := config.GetDB().WithContext(ctx).Where("client_id = ?", clientId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models of a client
func FetchAllModels[T any](ctx context.Context, clientId string, order string) ([]*T, error) {
	dbCtx := config.GetDB().WithContext(ctx).Where("client_id = ?", clientId)
	if order != "" {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
