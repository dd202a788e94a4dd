//go:build integration

package pkg_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"flownet/migrations"
	"flownet/pkg/database"
	"flownet/tests/integration/testutil"
)

func setupDatabase(t *testing.T) *database.PostgresDB {
	t.Helper()
	testutil.RequirePostgres(t)

	ctx, cancel := testutil.Context(t)
	defer cancel()

	cfg := testutil.PostgresConfig()
	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	testutil.Cleanup(t, db.Close)

	if err := database.RunMigrations(ctx, db.Pool(), cfg, migrations.PostgresMigrations, "postgres"); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	return db
}

func TestPostgres_ConnectAndPing(t *testing.T) {
	db := setupDatabase(t)

	ctx, cancel := testutil.Context(t)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := setupDatabase(t)

	ctx, cancel := testutil.Context(t)
	defer cancel()

	id := uuid.NewString()
	sentinel := errors.New("boom")
	err := database.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO runs (id, network, result, max_flow, status, iterations, node_count, edge_count, duration_ms)
			VALUES ($1, '{}', '{}', 1, 'optimal', 1, 2, 1, 0)
		`, id); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	// Запись не должна была зафиксироваться
	var count int
	row := db.QueryRow(ctx, `SELECT COUNT(*) FROM runs WHERE id = $1`, id)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("found %d rows after rollback, want 0", count)
	}
}
