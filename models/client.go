package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"gorm.io/gorm"
)

// Client is a shop; every business record belongs to exactly one.
type Client struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Name          string    `gorm:"size:255;not null;index" json:"name"`
	Location      string    `gorm:"size:255" json:"location"`
	Currency      string    `gorm:"size:10;not null" json:"currency"`
	ContactNumber string    `gorm:"size:30" json:"contact_number"`
	Timezone      string    `gorm:"size:64" json:"timezone"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewClient struct {
	Name          string `json:"name" binding:"required"`
	Location      string `json:"location"`
	Currency      string `json:"currency"`
	ContactNumber string `json:"contact_number"`
	Timezone      string `json:"timezone"`
}

func (c *Client) Loc() *time.Location {
	return utils.LoadLocation(c.Timezone)
}

func (input *NewClient) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("name is required")
	}
	if input.ContactNumber != "" {
		if err := utils.ValidatePhoneNumber(input.ContactNumber, config.GetSettings().Locale.PhoneRegion); err != nil {
			return errors.New("invalid contact number")
		}
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return errors.New("invalid timezone")
		}
	}
	return nil
}

func (input *NewClient) normalized() NewClient {
	s := config.GetSettings().Locale
	out := *input
	out.Name = strings.TrimSpace(input.Name)
	out.Location = strings.TrimSpace(input.Location)
	out.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if out.Currency == "" {
		out.Currency = s.DefaultCurrency
	}
	if out.ContactNumber != "" {
		out.ContactNumber = utils.FormatPhoneNumber(out.ContactNumber, s.PhoneRegion)
	}
	if out.Timezone == "" {
		out.Timezone = s.DefaultTimezone
	}
	return out
}

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	in := input.normalized()
	client := Client{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Location:      in.Location,
		Currency:      in.Currency,
		ContactNumber: in.ContactNumber,
		Timezone:      in.Timezone,
	}
	if err := config.GetDB().WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func UpdateClient(ctx context.Context, id string, input *NewClient) (*Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	client, err := GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	in := input.normalized()
	db := config.GetDB().WithContext(ctx)
	if err := db.Model(client).Updates(map[string]interface{}{
		"name":           in.Name,
		"location":       in.Location,
		"currency":       in.Currency,
		"contact_number": in.ContactNumber,
		"timezone":       in.Timezone,
	}).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*client); err != nil {
		return nil, err
	}
	return GetClient(ctx, id)
}

// DeleteClient removes the shop record only; its transactions stay for audit exports.
func DeleteClient(ctx context.Context, id string) (*Client, error) {
	client, err := GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := config.GetDB().WithContext(ctx).Delete(client).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*client); err != nil {
		return nil, err
	}
	return client, nil
}

// GetClient reads through the Client:$id cache.
func GetClient(ctx context.Context, id string) (*Client, error) {
	if id == "" {
		return nil, errors.New("client is required")
	}
	cached, err := utils.RetrieveRedis[Client](id)
	if err != nil {
		config.LogError(config.GetLogger(), "Client", "GetClient", "retrieve cache", id, err)
	}
	if cached != nil {
		return cached, nil
	}
	var client Client
	if err := config.GetDB().WithContext(ctx).Where("id = ?", id).Take(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := utils.StoreRedis(&client, id); err != nil {
		config.LogError(config.GetLogger(), "Client", "GetClient", "store cache", id, err)
	}
	return &client, nil
}

// ListClients returns every client for super admins, else the assigned shops.
func ListClients(ctx context.Context) ([]*Client, error) {
	db := config.GetDB().WithContext(ctx).Order("name")
	if isSuperAdmin, _ := utils.GetIsSuperAdminFromContext(ctx); !isSuperAdmin {
		shops, _ := utils.GetAssignedShopsFromContext(ctx)
		if len(shops) == 0 {
			return []*Client{}, nil
		}
		db = db.Where("id IN ?", shops)
	}
	var results []*Client
	if err := db.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetClientsByIds is used by the client loader.
func GetClientsByIds(ctx context.Context, ids []string) ([]*Client, error) {
	var results []*Client
	if err := config.GetDB().WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
