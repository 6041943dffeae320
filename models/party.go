package models

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// Party is a customer and/or supplier of one client.
type Party struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ClientId  string    `gorm:"size:64;not null;index" json:"client_id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Type      PartyType `gorm:"size:20;not null" json:"type"`
	Contact   string    `gorm:"size:100" json:"contact"`
	TaxNumber string    `gorm:"size:100" json:"tax_number"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Name      string    `json:"name" binding:"required"`
	Type      PartyType `json:"type" binding:"required"`
	Contact   string    `json:"contact"`
	TaxNumber string    `json:"tax_number"`
}

// max edit distance for a fuzzy name hit
const partySearchDistance = 2

/*
caches:
	PartyList:$clientId
*/

func (input *NewParty) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("name is required")
	}
	if !input.Type.IsValid() {
		return errors.New("invalid party type")
	}
	if input.Contact != "" && utils.LooksLikePhoneNumber(input.Contact) {
		if err := utils.ValidatePhoneNumber(input.Contact, config.GetSettings().Locale.PhoneRegion); err != nil {
			return errors.New("invalid contact number")
		}
	}
	return nil
}

func (input *NewParty) contact() string {
	if input.Contact != "" && utils.LooksLikePhoneNumber(input.Contact) {
		return utils.FormatPhoneNumber(input.Contact, config.GetSettings().Locale.PhoneRegion)
	}
	return strings.TrimSpace(input.Contact)
}

func CreateParty(ctx context.Context, input *NewParty) (*Party, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	party := Party{
		ClientId:  clientId,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Contact:   input.contact(),
		TaxNumber: strings.TrimSpace(input.TaxNumber),
	}
	if err := config.GetDB().WithContext(ctx).Create(&party).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(party); err != nil {
		return nil, err
	}
	return &party, nil
}

// UpdateParty never rewrites historical transactions; they keep the party name and type of their entry time.
func UpdateParty(ctx context.Context, id int, input *NewParty) (*Party, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	party, err := utils.FetchModel[Party](ctx, clientId, id)
	if err != nil {
		return nil, err
	}
	if err := config.GetDB().WithContext(ctx).Model(party).Updates(map[string]interface{}{
		"name":       strings.TrimSpace(input.Name),
		"type":       input.Type,
		"contact":    input.contact(),
		"tax_number": strings.TrimSpace(input.TaxNumber),
	}).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*party); err != nil {
		return nil, err
	}
	return utils.FetchModel[Party](ctx, clientId, id)
}

func DeleteParty(ctx context.Context, id int) (*Party, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	party, err := utils.FetchModel[Party](ctx, clientId, id)
	if err != nil {
		return nil, err
	}
	if err := config.GetDB().WithContext(ctx).Delete(party).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*party); err != nil {
		return nil, err
	}
	return party, nil
}

func GetParty(ctx context.Context, clientId string, id int) (*Party, error) {
	return utils.FetchModel[Party](ctx, clientId, id)
}

// ListParties reads through the PartyList:$clientId cache, ordered by name.
func ListParties(ctx context.Context, clientId string) ([]*Party, error) {
	cached, err := utils.RetrieveRedisList[Party](clientId)
	if err != nil {
		config.LogError(config.GetLogger(), "Party", "ListParties", "retrieve cache", clientId, err)
	}
	if cached != nil {
		return cached, nil
	}
	results, err := utils.FetchAllModels[Party](ctx, clientId, "name")
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedisList(results, clientId); err != nil {
		config.LogError(config.GetLogger(), "Party", "ListParties", "store cache", clientId, err)
	}
	return results, nil
}

// GetPartiesByIds is used by the party loader.
func GetPartiesByIds(ctx context.Context, ids []int) ([]*Party, error) {
	var results []*Party
	if err := config.GetDB().WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type partyHit struct {
	party    *Party
	distance int
}

// SearchParties matches q against name, type, contact and tax number.
// Substring hits rank first; names within a small edit distance follow.
func SearchParties(parties []*Party, q string) []*Party {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return parties
	}
	var hits []partyHit
	for _, p := range parties {
		name := strings.ToLower(p.Name)
		switch {
		case strings.Contains(name, q),
			strings.Contains(strings.ToLower(string(p.Type)), q),
			strings.Contains(strings.ToLower(p.Contact), q),
			strings.Contains(strings.ToLower(p.TaxNumber), q):
			hits = append(hits, partyHit{party: p})
		default:
			if d := levenshtein.ComputeDistance(name, q); d <= partySearchDistance {
				hits = append(hits, partyHit{party: p, distance: d})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return strings.ToLower(hits[i].party.Name) < strings.ToLower(hits[j].party.Name)
	})
	results := make([]*Party, 0, len(hits))
	for _, h := range hits {
		results = append(results, h.party)
	}
	return results
}
