package config

import (
	"context"
	"strings"

	"github.com/shamseergtct/gtct-analytics/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "client_id"

// TenantGuardPlugin scopes queries, updates and deletes to the request's client_id
// whenever the model carries a client_id column.
//
// Raw SQL is not covered; those statements must filter on client_id themselves.
// The client id is only placed in the context after the client scope middleware
// authorised it, so super admins are scoped to the shop they opened as well.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback)
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if skipTenantScope(ctx) {
		return
	}
	clientId, _ := appctx.GetString(ctx, appctx.ContextKeyClientId)
	if clientId == "" || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField(tenantColumn) == nil {
		return
	}
	// an explicit filter wins
	if whereHasClientID(db.Statement.Clauses["WHERE"]) {
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  clientId,
			},
		},
	})
}

func skipTenantScope(ctx context.Context) bool {
	v, _ := appctx.GetBool(ctx, appctx.ContextKeySkipTenantScope)
	return v
}

// WithoutTenantScope marks a context so the guard leaves its statements alone.
// Internal workers only.
func WithoutTenantScope(ctx context.Context) context.Context {
	return appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)
}

func whereHasClientID(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasClientID(e) {
			return true
		}
	}
	return false
}

func exprHasClientID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isClientIDColumn(v.Column)
	case clause.Neq:
		return isClientIDColumn(v.Column)
	case clause.IN:
		return isClientIDColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasClientID(x) {
				return true
			}
		}
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasClientID(x) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	}
	return false
}

func isClientIDColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	}
	return false
}
