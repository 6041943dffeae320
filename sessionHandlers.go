package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
)

// getSessionHandler answers an empty session for days nobody has opened yet.
func getSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientId := scopedClientId(c)
		dateKey := c.Param("dateKey")
		session, err := models.NewDailySessionStore(nil).Fetch(c.Request.Context(), clientId, dateKey)
		if err != nil {
			respondError(c, err)
			return
		}
		if session == nil {
			session = &models.DailySession{ID: models.SessionId(clientId, dateKey), ClientId: clientId, DateKey: dateKey}
		}
		c.JSON(http.StatusOK, gin.H{"data": session})
	}
}

func upsertSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.DailySessionPatch
		if !bindJSON(c, &patch) {
			return
		}
		ctx := c.Request.Context()
		clientId := scopedClientId(c)
		session, err := models.NewDailySessionStore(nil).Upsert(ctx, clientId, c.Param("dateKey"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		// opening balances and the drawer count feed every cached report of the client
		if err := reports.InvalidateClientReports(ctx, clientId); err != nil {
			config.LogError(config.GetLogger(), "server", "upsertSessionHandler", "invalidate report cache", clientId, err)
		}
		c.JSON(http.StatusOK, gin.H{"data": session})
	}
}
