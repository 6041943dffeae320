package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionVersionConflict = errors.New("daily session was changed by someone else")

// DailySession holds the hand-entered inputs of one shop day.
type DailySession struct {
	ID               string          `gorm:"primaryKey;size:100" json:"id"`
	ClientId         string          `gorm:"size:64;not null;index" json:"client_id"`
	DateKey          string          `gorm:"size:10;not null" json:"date_key"`
	OpeningCash      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_cash"`
	OpeningBank      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_bank"`
	ActualCashDrawer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_cash_drawer"`
	AnalystNotes     string          `gorm:"type:text" json:"analyst_notes"`
	Version          int             `gorm:"not null;default:0" json:"version"`
	UpdatedBy        int             `json:"updated_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// DailySessionPatch carries only the fields to change; nil fields are left alone.
type DailySessionPatch struct {
	OpeningCash      *utils.Amount `json:"opening_cash"`
	OpeningBank      *utils.Amount `json:"opening_bank"`
	ActualCashDrawer *utils.Amount `json:"actual_cash_drawer"`
	AnalystNotes     *string       `json:"analyst_notes"`
	// when set, the write only happens if the stored version still matches
	ExpectedVersion *int `json:"expected_version"`
}

func (p DailySessionPatch) updates() map[string]interface{} {
	m := map[string]interface{}{}
	if p.OpeningCash != nil {
		m["opening_cash"] = p.OpeningCash.Decimal
	}
	if p.OpeningBank != nil {
		m["opening_bank"] = p.OpeningBank.Decimal
	}
	if p.ActualCashDrawer != nil {
		m["actual_cash_drawer"] = p.ActualCashDrawer.Decimal
	}
	if p.AnalystNotes != nil {
		m["analyst_notes"] = *p.AnalystNotes
	}
	return m
}

func SessionId(clientId string, dateKey string) string {
	return clientId + "__" + dateKey
}

// DailySessionStore is the gorm SessionStore. Upserts of one key are
// serialized with a redis lock when redis is connected, and always checked
// against the stored version.
type DailySessionStore struct {
	db      *gorm.DB
	lockTTL time.Duration
}

func NewDailySessionStore(db *gorm.DB) *DailySessionStore {
	return &DailySessionStore{db: db, lockTTL: 10 * time.Second}
}

func (s *DailySessionStore) conn(ctx context.Context) *gorm.DB {
	if s.db != nil {
		return s.db.WithContext(ctx)
	}
	return config.GetDB().WithContext(ctx)
}

func validateSessionKey(clientId string, dateKey string) error {
	if clientId == "" {
		return errors.New("client id is required")
	}
	if !utils.IsValidDateKey(dateKey) {
		return utils.ErrInvalidDateKey
	}
	return nil
}

// Fetch returns nil, nil when the day has no session yet.
func (s *DailySessionStore) Fetch(ctx context.Context, clientId string, dateKey string) (*DailySession, error) {
	if err := validateSessionKey(clientId, dateKey); err != nil {
		return nil, err
	}
	var session DailySession
	err := s.conn(ctx).Where("id = ?", SessionId(clientId, dateKey)).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch daily session: %w", err)
	}
	return &session, nil
}

// Upsert merges patch into the session, creating it on first write.
func (s *DailySessionStore) Upsert(ctx context.Context, clientId string, dateKey string, patch DailySessionPatch) (*DailySession, error) {
	if err := validateSessionKey(clientId, dateKey); err != nil {
		return nil, err
	}
	id := SessionId(clientId, dateKey)

	release, err := utils.ObtainLock(ctx, "lock:session", id, s.lockTTL, "DailySessionStore", "Upsert")
	if err != nil {
		return nil, err
	}
	defer release()

	userId, _ := utils.GetUserIdFromContext(ctx)
	var result DailySession
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		seed := DailySession{ID: id, ClientId: clientId, DateKey: dateKey}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		var current DailySession
		if err := tx.Where("id = ?", id).Take(&current).Error; err != nil {
			return err
		}
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != current.Version {
			return ErrSessionVersionConflict
		}

		updates := patch.updates()
		updates["version"] = current.Version + 1
		updates["updated_by"] = userId
		res := tx.Model(&DailySession{}).
			Where("id = ? AND version = ?", id, current.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrSessionVersionConflict
		}
		return tx.Where("id = ?", id).Take(&result).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("upsert daily session: %w", err)
	}
	return &result, nil
}
