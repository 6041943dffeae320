package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shamseergtct/gtct-analytics/workflow"
)

func main() {
	clientID := flag.String("client", "", "Optional: backfill only one client id. If empty, backfills all clients.")
	from := flag.String("from", "", "Optional: start date (YYYY-MM-DD). Defaults to the client's earliest transaction.")
	to := flag.String("to", "", "Optional: end date (YYYY-MM-DD). Defaults to today in client timezone.")
	flag.Parse()

	// Workers run outside any request, so no tenant is bound up front.
	ctx := config.WithoutTenantScope(context.Background())
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if config.GetSettings().Redis.Address != "" {
		// Needed for the posting lock and to drop cached reports.
		config.ConnectRedisWithRetry()
	}

	// Ensure schema is up-to-date (creates daily_summaries if missing).
	models.MigrateTable()

	var clients []models.Client
	q := db.WithContext(ctx).Model(&models.Client{})
	if id := strings.TrimSpace(*clientID); id != "" {
		q = q.Where("id = ?", id)
	}
	if err := q.Order("id").Find(&clients).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list clients: %v\n", err)
		os.Exit(1)
	}
	if len(clients) == 0 {
		fmt.Fprintln(os.Stderr, "no clients found to backfill")
		return
	}

	failed := 0
	for _, c := range clients {
		start := strings.TrimSpace(*from)
		if start == "" {
			var first []string
			if err := db.WithContext(ctx).Model(&models.Transaction{}).
				Where("client_id = ?", c.ID).
				Order("date_key").Limit(1).
				Pluck("date_key", &first).Error; err != nil {
				fmt.Fprintf(os.Stderr, "client %s: failed to find first transaction: %v\n", c.ID, err)
				failed++
				continue
			}
			if len(first) == 0 {
				fmt.Printf("client %s: no transactions, skipped\n", c.ID)
				continue
			}
			start = first[0]
		}
		end := strings.TrimSpace(*to)
		if end == "" {
			end = utils.DateKey(time.Now(), c.Loc())
		}

		fmt.Printf("Backfilling daily_summaries client=%s from=%s to=%s\n", c.ID, start, end)
		n, err := workflow.BackfillDailySummaries(ctx, c.ID, start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "client %s: backfill failed: %v\n", c.ID, err)
			failed++
			continue
		}
		fmt.Printf("client %s: rebuilt %d day(s)\n", c.ID, n)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
