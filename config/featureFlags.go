package config

import (
	"os"
	"strings"
)

func envBool(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// OutboxDirectProcessing processes ledger events in-process instead of publishing
// them to Pub/Sub. Handy for single-instance deployments and local runs.
//
// Set via env:
// - OUTBOX_DIRECT_PROCESSING=true
func OutboxDirectProcessing() bool {
	return envBool("OUTBOX_DIRECT_PROCESSING")
}

// SkipMigrations disables AutoMigrate on startup.
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}

// IntegrationTestsEnabled gates tests that need a live MySQL/Redis.
func IntegrationTestsEnabled() bool {
	return envBool("INTEGRATION_TESTS")
}
