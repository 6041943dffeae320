package models

import (
	"context"
	"fmt"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"gorm.io/gorm"
)

// TransactionStore reads transactions of one client for an inclusive date-key range.
type TransactionStore interface {
	QueryTransactions(ctx context.Context, clientId string, fromKey string, toKey string) ([]*Transaction, error)
}

// SessionStore persists the per (client, day) report inputs.
type SessionStore interface {
	Fetch(ctx context.Context, clientId string, dateKey string) (*DailySession, error)
	Upsert(ctx context.Context, clientId string, dateKey string, patch DailySessionPatch) (*DailySession, error)
}

type PartyStore interface {
	QueryParties(ctx context.Context, clientId string) ([]*Party, error)
}

type ClientStore interface {
	GetClient(ctx context.Context, id string) (*Client, error)
}

// RecordStore is the gorm backed record store. A nil db means config.GetDB().
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) conn(ctx context.Context) *gorm.DB {
	if s.db != nil {
		return s.db.WithContext(ctx)
	}
	return config.GetDB().WithContext(ctx)
}

func (s *RecordStore) QueryTransactions(ctx context.Context, clientId string, fromKey string, toKey string) ([]*Transaction, error) {
	if clientId == "" {
		return nil, fmt.Errorf("query transactions: client id is required")
	}
	var results []*Transaction
	err := s.conn(ctx).
		Where("client_id = ?", clientId).
		Where("date_key BETWEEN ? AND ?", fromKey, toKey).
		Order("date DESC").Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return results, nil
}

func (s *RecordStore) QueryParties(ctx context.Context, clientId string) ([]*Party, error) {
	if s.db == nil {
		return ListParties(ctx, clientId)
	}
	var results []*Party
	if err := s.conn(ctx).Where("client_id = ?", clientId).Order("name").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("query parties: %w", err)
	}
	return results, nil
}

func (s *RecordStore) GetClient(ctx context.Context, id string) (*Client, error) {
	if s.db == nil {
		return GetClient(ctx, id)
	}
	var client Client
	if err := s.conn(ctx).Where("id = ?", id).Take(&client).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &client, nil
}
