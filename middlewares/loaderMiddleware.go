package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the per-row lookups of transaction listings.
type Loaders struct {
	partyLoader      *dataloader.Loader[int, *models.Party]
	clientLoader     *dataloader.Loader[string, *models.Client]
	attachmentLoader *dataloader.Loader[int, []*models.Attachment]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	partyReader := &partyReader{db: conn}
	clientReader := &clientReader{db: conn}
	attachmentReader := &attachmentReader{db: conn}

	return &Loaders{
		partyLoader:      dataloader.NewBatchedLoader(partyReader.getParties, dataloader.WithWait[int, *models.Party](time.Millisecond)),
		clientLoader:     dataloader.NewBatchedLoader(clientReader.getClients, dataloader.WithWait[string, *models.Client](time.Millisecond)),
		attachmentLoader: dataloader.NewBatchedLoader(attachmentReader.getAttachments, dataloader.WithWait[int, []*models.Attachment](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, or a fresh set outside of a request.
func For(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return l
	}
	return NewLoaders(config.GetDB())
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results in key order; missing keys load as nil
func generateLoaderResults[K comparable, T any](results []*T, keys []K, keyOf func(*T) K) []*dataloader.Result[*T] {
	resultMap := make(map[K]*T, len(results))
	for _, result := range results {
		resultMap[keyOf(result)] = result
	}
	loaderResults := make([]*dataloader.Result[*T], 0, len(keys))
	for _, key := range keys {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: resultMap[key]})
	}
	return loaderResults
}

// each key has many related results
func generateLoaderArrayResults[T any](results []*T, referenceIds []int, referenceOf func(*T) int) []*dataloader.Result[[]*T] {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		resultMap[referenceOf(result)] = append(resultMap[referenceOf(result)], result)
	}
	loaderResults := make([]*dataloader.Result[[]*T], 0, len(referenceIds))
	for _, id := range referenceIds {
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultMap[id]})
	}
	return loaderResults
}
