package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shamseergtct/gtct-analytics/workflow"
	"github.com/sirupsen/logrus"
)

// ledgerEventPushHandler is the Pub/Sub push endpoint. Malformed messages are
// acked (204) so they do not loop; processing failures answer 500 so Pub/Sub
// retries and eventually dead-letters them.
func ledgerEventPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server", "ledgerEventPushHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}
		env, msg, err := config.DecodePushEnvelope(body)
		if err != nil {
			config.LogError(logger, "server", "ledgerEventPushHandler", "decode push envelope", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}
		if msg.ClientId == "" || !utils.IsValidDateKey(msg.DateKey) {
			config.LogError(logger, "server", "ledgerEventPushHandler", "invalid ledger event", msg, workflow.ErrInvalidLedgerEvent)
			c.Status(http.StatusNoContent)
			return
		}
		// payload correlation id first, then the Pub/Sub message id
		if msg.CorrelationId == "" {
			msg.CorrelationId = env.Message.MessageID
		}

		if err := workflow.ProcessLedgerEvent(c.Request.Context(), logger, msg); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "ledgerEventPushHandler",
				"client_id":      msg.ClientId,
				"date_key":       msg.DateKey,
				"reference_id":   msg.ReferenceId,
				"message_id":     env.Message.MessageID,
				"correlation_id": msg.CorrelationId,
			}).Error("pubsub processing failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type outboxReplayRequest struct {
	ClientId string `json:"client_id" binding:"required"`
	RecordId int    `json:"record_id" binding:"required"`
}

func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req outboxReplayRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id and record_id are required"})
			return
		}
		rec, err := workflow.ReplayOutboxRecord(c.Request.Context(), req.ClientId, req.RecordId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				respondError(c, err)
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		next := ""
		if rec.NextAttemptAt != nil {
			next = rec.NextAttemptAt.UTC().Format(time.RFC3339Nano)
		}
		c.JSON(http.StatusOK, gin.H{
			"client_id":         rec.ClientId,
			"record_id":         rec.ID,
			"publish_status":    rec.PublishStatus,
			"processing_status": rec.ProcessingStatus,
			"next_attempt_at":   next,
		})
	}
}
