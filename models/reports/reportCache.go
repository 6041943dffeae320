package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/sirupsen/logrus"
)

func reportCacheEnabled() bool {
	return config.GetSettings().Report.CacheEnabled && config.GetRedisDB() != nil
}

func reportCacheTTL() time.Duration {
	return time.Duration(config.GetSettings().Report.CacheTTLSeconds) * time.Second
}

func reportSlowMs() int64 {
	return config.GetSettings().Report.SlowMs
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	clientId, _ := utils.GetClientIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"client_id":      clientId,
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

func dailyReportCacheKey(clientId string, fromKey string, toKey string) string {
	return fmt.Sprintf("report:daily:%s:%s:%s", clientId, fromKey, toKey)
}

func partyReportCacheKey(clientId string, partyId int, partyName string, fromKey string, toKey string) string {
	return fmt.Sprintf("report:party:%s:%d:%s:%s:%s", clientId, partyId, partyName, fromKey, toKey)
}

func cacheGet[T any](key string, dest *T) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}

// InvalidateClientReports drops every cached report of a client. Ranges
// overlap freely, so a change on any day clears them all.
func InvalidateClientReports(ctx context.Context, clientId string) error {
	if clientId == "" {
		return nil
	}
	return config.RemoveRedisKeysByPattern(ctx, fmt.Sprintf("report:*:%s:*", clientId))
}
