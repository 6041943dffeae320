// seed-admin creates the super admin user, or resets its password when it exists.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-admin -email root@example.com -password '...'
//
// SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are used when the flags are omitted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
)

func main() {
	email := flag.String("email", os.Getenv("SEED_ADMIN_EMAIL"), "super admin email (login username)")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "super admin password")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required (or SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD)")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if !config.SkipMigrations() {
		if err := models.Migrate(db); err != nil {
			fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
			os.Exit(1)
		}
	}

	user, err := models.UpsertSuperAdmin(config.WithoutTenantScope(context.Background()), *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed super admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("super admin ready: id=%d username=%s\n", user.ID, user.Username)
}
