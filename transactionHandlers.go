package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/middlewares"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
)

// listTransactionsHandler returns the range newest first with each row's party attached,
// or a CSV/XLSX download with ?format=.
func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryRange(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		txns, err := models.ListTransactions(ctx, scopedClientId(c), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := middlewares.AttachParties(ctx, txns); err != nil {
			respondError(c, err)
			return
		}
		if c.Query("format") == "" {
			c.JSON(http.StatusOK, gin.H{"data": txns})
			return
		}
		export := &reports.TransactionExport{ClientId: scopedClientId(c), From: from, To: to, Rows: txns}
		writeExport(c, export, export.FileName(), reports.TransactionsCSV, reports.TransactionsXLSX)
	}
}

func createTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTransaction
		if !bindJSON(c, &input) {
			return
		}
		txn, err := models.CreateTransaction(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": txn})
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		txn, err := models.DeleteTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": txn})
	}
}

func listAttachmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		attachments, err := middlewares.GetAttachments(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if attachments == nil {
			attachments = []*models.Attachment{}
		}
		c.JSON(http.StatusOK, gin.H{"data": attachments})
	}
}

func postingStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		status, err := models.GetTransactionPostingStatus(c.Request.Context(), scopedClientId(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": status})
	}
}
