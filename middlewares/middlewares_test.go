package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/middlewares"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/testutil"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func scopedRouter() *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware(), middlewares.AuthMiddleware(), middlewares.LoaderMiddleware())
	g := r.Group("/clients/:clientId", middlewares.ClientScopeMiddleware())
	handler := func(c *gin.Context) {
		clientId, _ := utils.GetClientIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"client": clientId})
	}
	g.GET("/ping", handler)
	g.POST("/ping", handler)
	return r
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	info, err := models.IssueApiToken(context.Background(), email, "secret1")
	require.NoError(t, err)
	return "Bearer " + info.Token
}

func do(r http.Handler, method string, path string, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClientScope(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "shop-a", "Shop A")
	testutil.SeedClient(t, db, "shop-b", "Shop B")
	ctx := context.Background()
	_, err := models.CreateUser(ctx, &models.NewUser{Email: "admin@shop.ae", Password: "secret1", AssignedShops: []string{"shop-a"}})
	require.NoError(t, err)
	_, err = models.CreateUser(ctx, &models.NewUser{Email: "partner@shop.ae", Password: "secret1", Role: models.UserRolePartner, AssignedShops: []string{"shop-a"}})
	require.NoError(t, err)
	_, err = models.UpsertSuperAdmin(ctx, "root@shop.ae", "secret1")
	require.NoError(t, err)

	r := scopedRouter()
	admin := bearer(t, "admin@shop.ae")
	partner := bearer(t, "partner@shop.ae")
	root := bearer(t, "root@shop.ae")

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"anonymous", http.MethodGet, "/clients/shop-a/ping", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/clients/shop-a/ping", "Bearer nope", http.StatusUnauthorized},
		{"admin own shop", http.MethodGet, "/clients/shop-a/ping", admin, http.StatusOK},
		{"admin write own shop", http.MethodPost, "/clients/shop-a/ping", admin, http.StatusOK},
		{"admin other shop", http.MethodGet, "/clients/shop-b/ping", admin, http.StatusForbidden},
		{"partner read", http.MethodGet, "/clients/shop-a/ping", partner, http.StatusOK},
		{"partner write", http.MethodPost, "/clients/shop-a/ping", partner, http.StatusForbidden},
		{"super admin any shop", http.MethodPost, "/clients/shop-b/ping", root, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.auth)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middlewares.CorrelationHeader))
		})
	}
}

func TestAuthMiddleware_DisabledUser(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "shop-a", "Shop A")
	ctx := context.Background()
	user, err := models.CreateUser(ctx, &models.NewUser{Email: "clerk@shop.ae", Password: "secret1", AssignedShops: []string{"shop-a"}})
	require.NoError(t, err)
	token := bearer(t, "clerk@shop.ae")

	_, err = models.SetUserActive(ctx, user.ID, false)
	require.NoError(t, err)

	w := do(scopedRouter(), http.MethodGet, "/clients/shop-a/ping", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCorrelationMiddleware_KeepsCallerId(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.GET("/", func(c *gin.Context) {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.String(http.StatusOK, cid)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middlewares.CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(middlewares.CorrelationHeader))
}

func TestAttachParties(t *testing.T) {
	db := testutil.OpenTestDB(t)
	testutil.SeedClient(t, db, "shop-a", "Shop A")
	acme := testutil.SeedParty(t, db, "shop-a", "Acme", models.PartyTypeCustomer)
	ctx := testutil.ClientContext("shop-a", 1)

	txns := []*models.Transaction{{PartyId: acme.ID}, {PartyId: 0}, {PartyId: 9999}}
	require.NoError(t, middlewares.AttachParties(ctx, txns))
	require.NotNil(t, txns[0].Party)
	assert.Equal(t, "Acme", txns[0].Party.Name)
	assert.Nil(t, txns[1].Party)
	assert.Nil(t, txns[2].Party)
}
