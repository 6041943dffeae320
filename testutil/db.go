// Package testutil wires an in-memory database and settings for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// OpenTestDB migrates a fresh in-memory sqlite database and installs it as the global DB.
// Redis is disabled so every cache and lock helper is a no-op.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:gtct_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps the shared memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	config.InstallPlugins(db)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prevDB := config.GetDB()
	config.SetDB(db)
	config.SetRedisClient(nil)
	t.Cleanup(func() {
		config.SetDB(prevDB)
		_ = sqlDB.Close()
	})
	return db
}

// ClientContext returns a context scoped to clientId as the client scope middleware would.
func ClientContext(clientId string, userId int) context.Context {
	ctx := utils.SetClientIdInContext(context.Background(), clientId)
	ctx = utils.SetUserIdInContext(ctx, userId)
	return utils.SetCorrelationIdInContext(ctx, "test-correlation")
}

// SeedClient inserts a client in the Dubai timezone.
func SeedClient(t *testing.T, db *gorm.DB, id string, name string) *models.Client {
	t.Helper()
	c := &models.Client{ID: id, Name: name, Currency: "AED", Timezone: "Asia/Dubai"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

func SeedParty(t *testing.T, db *gorm.DB, clientId string, name string, partyType models.PartyType) *models.Party {
	t.Helper()
	p := &models.Party{ClientId: clientId, Name: name, Type: partyType}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed party: %v", err)
	}
	return p
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
