package models_test

import (
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySessionStore_FetchMissing(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := models.NewDailySessionStore(db)
	ctx := testutil.ClientContext("client-1", 1)

	session, err := store.Fetch(ctx, "client-1", "2024-03-01")
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = store.Fetch(ctx, "client-1", "2024-3-1")
	assert.ErrorIs(t, err, utils.ErrInvalidDateKey)
	_, err = store.Fetch(ctx, "", "2024-03-01")
	assert.Error(t, err)
}

func TestDailySessionStore_UpsertMerges(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := models.NewDailySessionStore(db)
	ctx := testutil.ClientContext("client-1", 3)

	opening := amount(t, "500")
	first, err := store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{OpeningCash: &opening})
	require.NoError(t, err)
	assert.Equal(t, "client-1__2024-03-01", first.ID)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 3, first.UpdatedBy)

	drawer := amount(t, "742.5")
	notes := "counted twice"
	second, err := store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{ActualCashDrawer: &drawer, AnalystNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.True(t, second.OpeningCash.Equal(testutil.Dec(t, "500")), "earlier field is kept")
	assert.True(t, second.ActualCashDrawer.Equal(testutil.Dec(t, "742.5")))
	assert.Equal(t, "counted twice", second.AnalystNotes)

	fetched, err := store.Fetch(ctx, "client-1", "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, second.Version, fetched.Version)

	other, err := store.Fetch(ctx, "client-1", "2024-03-02")
	require.NoError(t, err)
	assert.Nil(t, other, "sessions are per day")
}

func TestDailySessionStore_VersionConflict(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := models.NewDailySessionStore(db)
	ctx := testutil.ClientContext("client-1", 1)

	bank := amount(t, "1000")
	_, err := store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{OpeningBank: &bank})
	require.NoError(t, err)

	stale := 0
	_, err = store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{OpeningBank: &bank, ExpectedVersion: &stale})
	assert.ErrorIs(t, err, models.ErrSessionVersionConflict)

	current := 1
	updated, err := store.Upsert(ctx, "client-1", "2024-03-01", models.DailySessionPatch{OpeningBank: &bank, ExpectedVersion: &current})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
}
