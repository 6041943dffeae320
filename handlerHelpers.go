package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// statusFor maps the sentinel errors of the model layer to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrSessionVersionConflict):
		return http.StatusConflict
	case errors.Is(err, utils.ErrStorageNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON answers 400 with per-field messages when the body does not bind.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func scopedClientId(c *gin.Context) string {
	clientId, _ := utils.GetClientIdFromContext(c.Request.Context())
	return clientId
}

// queryRange reads from/to. A missing to means the single day from; a missing
// from means today in the client's timezone.
func queryRange(c *gin.Context) (string, string, bool) {
	return checkRange(c, c.Query("from"), c.Query("to"))
}

func checkRange(c *gin.Context, from string, to string) (string, string, bool) {
	if from == "" {
		from = todayKey(c)
	}
	if to == "" {
		to = from
	}
	if !utils.IsValidDateKey(from) || !utils.IsValidDateKey(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrInvalidDateKey.Error()})
		return "", "", false
	}
	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrInvalidDateRange.Error()})
		return "", "", false
	}
	return from, to, true
}

func todayKey(c *gin.Context) string {
	ctx := c.Request.Context()
	loc := utils.LoadLocation(config.GetSettings().Locale.DefaultTimezone)
	if client, err := models.GetClient(ctx, scopedClientId(c)); err == nil {
		loc = client.Loc()
	}
	return utils.DateKey(time.Now(), loc)
}
