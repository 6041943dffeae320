package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/shamseergtct/gtct-analytics/models"
	"gorm.io/gorm"
)

type clientReader struct {
	db *gorm.DB
}

func (r *clientReader) getClients(ctx context.Context, ids []string) []*dataloader.Result[*models.Client] {
	var results []*models.Client
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.Client](len(ids), err)
	}
	return generateLoaderResults(results, ids, func(c *models.Client) string { return c.ID })
}

func GetClient(ctx context.Context, id string) (*models.Client, error) {
	loaders := For(ctx)
	return loaders.clientLoader.Load(ctx, id)()
}

func GetClients(ctx context.Context, ids []string) ([]*models.Client, []error) {
	loaders := For(ctx)
	return loaders.clientLoader.LoadMany(ctx, ids)()
}
