package main

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/models/reports"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// writeExport renders format=csv|xlsx as a download and anything else as JSON.
func writeExport[T any](c *gin.Context, result *T, fileName string, toCSV func(io.Writer, *T) error, toXLSX func(io.Writer, *T) error) {
	var (
		write    func(io.Writer, *T) error
		mimeType string
		ext      string
	)
	switch c.Query("format") {
	case "":
		c.JSON(http.StatusOK, gin.H{"data": result})
		return
	case "csv":
		write, mimeType, ext = toCSV, mimeCSV, ".csv"
	case "xlsx":
		write, mimeType, ext = toXLSX, mimeXLSX, ".xlsx"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, result); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export report"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileName+ext+`"`)
	c.Data(http.StatusOK, mimeType, buf.Bytes())
}

func dailyReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryRange(c)
		if !ok {
			return
		}
		result, err := reports.NewService(nil).GetDailyReport(c.Request.Context(), scopedClientId(c), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		writeExport(c, result, result.FileName(), reports.DailyReportCSV, reports.DailyReportXLSX)
	}
}

func partyLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryRange(c)
		if !ok {
			return
		}
		var partyId int
		if raw := c.Query("partyId"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partyId"})
				return
			}
			partyId = id
		}
		result, err := reports.NewService(nil).GetPartyLedgerReport(c.Request.Context(), scopedClientId(c), partyId, c.Query("partyName"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		writeExport(c, result, result.FileName(), reports.PartyLedgerCSV, reports.PartyLedgerXLSX)
	}
}

// dashboardHandler serves the stored daily summaries; ?date= is a shorthand for one day.
func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to := c.Query("from"), c.Query("to")
		if date := c.Query("date"); date != "" && from == "" {
			from, to = date, date
		}
		from, to, ok := checkRange(c, from, to)
		if !ok {
			return
		}
		summaries, err := models.GetDailySummaries(c.Request.Context(), scopedClientId(c), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		if summaries == nil {
			summaries = []*models.DailySummary{}
		}
		c.JSON(http.StatusOK, gin.H{"data": summaries})
	}
}
