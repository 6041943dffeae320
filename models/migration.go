package models

import (
	"log"

	"github.com/shamseergtct/gtct-analytics/config"
	"gorm.io/gorm"
)

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Client{}, &User{}, &Party{},
		&Transaction{}, &Attachment{},
		&DailySession{}, &DailySummary{},
		&LedgerEventRecord{}, &IdempotencyKey{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

func MigrateTable() {
	if err := Migrate(config.GetDB()); err != nil {
		log.Fatal(err)
	}
}
