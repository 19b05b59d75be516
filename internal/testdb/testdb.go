// Package testdb starts a disposable PostgreSQL container with the schema
// applied, for integration tests gated by TEST_INTEGRATION.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JaimeStill/casefile/internal/migrations"
	"github.com/JaimeStill/casefile/pkg/database"
	"github.com/JaimeStill/casefile/pkg/logging"
)

// EnvIntegration enables container-backed tests when set.
const EnvIntegration = "TEST_INTEGRATION"

// Start launches PostgreSQL, applies migrations, and returns an open pool.
// The test is skipped unless TEST_INTEGRATION is set.
func Start(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv(EnvIntegration) == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("casefile_test"),
		postgres.WithUsername("casefile"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	portNum, _ := strconv.Atoi(port.Port())
	cfg := &database.Config{
		Host:     host,
		Port:     portNum,
		Name:     "casefile_test",
		User:     "casefile",
		Password: "test-password",
		SSLMode:  "disable",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	if err := migrations.Up(cfg.MigrateURL(), logging.Discard()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sys, err := database.New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db := sys.Connection()
	t.Cleanup(func() { db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping database: %v", err)
	}
	return db
}
