package models_test

import (
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partyNames(parties []*models.Party) []string {
	names := make([]string, 0, len(parties))
	for _, p := range parties {
		names = append(names, p.Name)
	}
	return names
}

func TestSearchParties(t *testing.T) {
	parties := []*models.Party{
		{ID: 1, Name: "Acme Trading", Type: models.PartyTypeCustomer},
		{ID: 2, Name: "Bulk Foods", Type: models.PartyTypeSupplier, TaxNumber: "TRN-100"},
		{ID: 3, Name: "Acne", Type: models.PartyTypeBoth},
		{ID: 4, Name: "Zed", Type: models.PartyTypeCustomer, Contact: "+971501234567"},
	}

	assert.Equal(t, []string{"Acme Trading"}, partyNames(models.SearchParties(parties, "trading")))
	assert.Equal(t, []string{"Bulk Foods"}, partyNames(models.SearchParties(parties, "trn-1")))
	assert.Equal(t, []string{"Zed"}, partyNames(models.SearchParties(parties, "97150")))
	// "acme" is a substring of one name and one edit away from another
	assert.Equal(t, []string{"Acme Trading", "Acne"}, partyNames(models.SearchParties(parties, "ACME")))
	assert.Len(t, models.SearchParties(parties, "  "), 4)
	assert.Empty(t, models.SearchParties(parties, "nothing like it"))
}

func TestPartyLifecycle(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := testutil.ClientContext("client-1", 1)

	_, err := models.CreateParty(ctx, &models.NewParty{Name: "  ", Type: models.PartyTypeCustomer})
	assert.Error(t, err)

	party, err := models.CreateParty(ctx, &models.NewParty{Name: " Bulk Foods ", Type: models.PartyTypeSupplier})
	require.NoError(t, err)
	assert.Equal(t, "Bulk Foods", party.Name)

	_, err = models.CreateParty(ctx, &models.NewParty{Name: "Acme", Type: models.PartyTypeCustomer})
	require.NoError(t, err)

	list, err := models.ListParties(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bulk Foods"}, partyNames(list))

	updated, err := models.UpdateParty(ctx, party.ID, &models.NewParty{Name: "Bulk Foods LLC", Type: models.PartyTypeBoth})
	require.NoError(t, err)
	assert.Equal(t, models.PartyTypeBoth, updated.Type)

	_, err = models.GetParty(testutil.ClientContext("client-2", 1), "client-2", party.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	_, err = models.DeleteParty(ctx, party.ID)
	require.NoError(t, err)
	list, err = models.ListParties(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, partyNames(list))
}
