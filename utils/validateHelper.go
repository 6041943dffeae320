package utils

import (
	"context"
	"errors"
	"reflect"

	"github.com/shamseergtct/gtct-analytics/config"
)

// check if id exists for the client, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, clientId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, clientId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

func ValidateUnique[T any](ctx context.Context, clientId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if exceptId == nil || reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, clientId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, clientId, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE client_id = ? AND $condition
// client_id can be blank for tables that are not client scoped
func ResourceCountWhere[T any](ctx context.Context, clientId string, condition string, value ...interface{}) (int64, error) {
	var model T
	dbCtx := config.GetDB().WithContext(ctx).Model(&model)
	if clientId != "" {
		dbCtx = dbCtx.Where("client_id = ?", clientId)
	}
	var count int64
	if err := dbCtx.Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
