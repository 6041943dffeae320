package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/shamseergtct/gtct-analytics/models"
	"gorm.io/gorm"
)

type partyReader struct {
	db *gorm.DB
}

func (r *partyReader) getParties(ctx context.Context, ids []int) []*dataloader.Result[*models.Party] {
	var results []*models.Party
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.Party](len(ids), err)
	}
	return generateLoaderResults(results, ids, func(p *models.Party) int { return p.ID })
}

// GetParty is nil for deleted parties.
func GetParty(ctx context.Context, id int) (*models.Party, error) {
	loaders := For(ctx)
	return loaders.partyLoader.Load(ctx, id)()
}

// AttachParties fills Transaction.Party for every row with a party id.
func AttachParties(ctx context.Context, txns []*models.Transaction) error {
	ids := make([]int, 0, len(txns))
	for _, t := range txns {
		if t.PartyId != 0 {
			ids = append(ids, t.PartyId)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	parties, errs := For(ctx).partyLoader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	byId := make(map[int]*models.Party, len(parties))
	for _, p := range parties {
		if p != nil {
			byId[p.ID] = p
		}
	}
	for _, t := range txns {
		t.Party = byId[t.PartyId]
	}
	return nil
}
