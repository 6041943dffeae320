package models_test

import (
	"context"
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_Validation(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := context.Background()

	cases := []struct {
		name  string
		input models.NewUser
	}{
		{"bad email", models.NewUser{Email: "not-an-email", Password: "secret1", AssignedShops: []string{"client-1"}}},
		{"short password", models.NewUser{Email: "a@shop.ae", Password: "12345", AssignedShops: []string{"client-1"}}},
		{"no shops", models.NewUser{Email: "a@shop.ae", Password: "secret1"}},
		{"unknown shop", models.NewUser{Email: "a@shop.ae", Password: "secret1", AssignedShops: []string{"client-1", "ghost"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := models.CreateUser(ctx, &input)
			assert.Error(t, err)
		})
	}

	_, err := models.CreateUser(ctx, &models.NewUser{Email: "a@shop.ae", Password: "12345", AssignedShops: []string{"client-1"}})
	assert.ErrorIs(t, err, utils.ErrPasswordTooShort)
}

func TestCreateUser_RolesAndUniqueness(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := context.Background()

	user, err := models.CreateUser(ctx, &models.NewUser{
		Email: " Owner@Shop.ae ", Password: "secret1", Role: models.UserRoleSuperAdmin,
		AssignedShops: []string{"client-1", "client-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.ae", user.Username)
	assert.Equal(t, models.UserRoleAdmin, user.Role, "super admin cannot be granted here")
	assert.Equal(t, []string{"client-1"}, user.AssignedShops)
	assert.Empty(t, user.Password)

	partner, err := models.CreateUser(ctx, &models.NewUser{
		Email: "partner@shop.ae", Password: "secret1", Role: models.UserRolePartner, AssignedShops: []string{"client-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserRolePartner, partner.Role)
	assert.False(t, partner.Role.CanWrite())
	assert.True(t, partner.CanAccessClient("client-1"))
	assert.False(t, partner.CanAccessClient("client-2"))

	_, err = models.CreateUser(ctx, &models.NewUser{Email: "OWNER@shop.ae", Password: "secret1", AssignedShops: []string{"client-1"}})
	assert.Error(t, err)
}

func TestLoginAndDisable(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "client-1", "Corner Shop")
	ctx := context.Background()

	user, err := models.CreateUser(ctx, &models.NewUser{Email: "clerk@shop.ae", Password: "secret1", AssignedShops: []string{"client-1"}})
	require.NoError(t, err)

	_, err = models.Login(ctx, "clerk@shop.ae", "wrong-pass")
	assert.Error(t, err)

	session, err := models.Login(ctx, "CLERK@shop.ae", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	info, err := models.IssueApiToken(ctx, "clerk@shop.ae", "secret1")
	require.NoError(t, err)
	claims, err := utils.JwtClaims(info.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, "admin", claims.Role)

	admin, err := models.UpsertSuperAdmin(ctx, "root@shop.ae", "rootpass")
	require.NoError(t, err)
	adminCtx := utils.SetUserIdInContext(ctx, admin.ID)

	_, err = models.SetUserActive(adminCtx, admin.ID, false)
	assert.Error(t, err, "cannot disable self")

	disabled, err := models.SetUserActive(adminCtx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Active())

	_, err = models.Login(ctx, "clerk@shop.ae", "secret1")
	assert.Error(t, err)
}
