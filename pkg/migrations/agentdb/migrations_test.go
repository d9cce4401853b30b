package agentdb

import (
	"context"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/scrtlabs/trading-middleware/pkg/dbutil"
)

func schemaObjectExists(t *testing.T, db *bun.DB, kind, name string) bool {
	t.Helper()

	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT count(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return n > 0
}

func TestMigrations_UpDown(t *testing.T) {
	ctx := context.Background()
	db := dbutil.SetupTestDB(t)

	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("failed to init migrations: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if group.IsZero() {
		t.Fatalf("expected migrations to apply")
	}

	for _, table := range []string{"users", "conversations", "trading_state"} {
		if !schemaObjectExists(t, db, "table", table) {
			t.Fatalf("table %s missing after migrate", table)
		}
	}
	if !schemaObjectExists(t, db, "index", "idx_conversations_wallet_address") {
		t.Fatalf("conversations wallet index missing after migrate")
	}

	if _, err := migrator.Rollback(ctx); err != nil {
		t.Fatalf("failed to rollback migrations: %v", err)
	}

	for _, table := range []string{"users", "conversations", "trading_state"} {
		if schemaObjectExists(t, db, "table", table) {
			t.Fatalf("table %s still present after rollback", table)
		}
	}
	if schemaObjectExists(t, db, "index", "idx_conversations_wallet_address") {
		t.Fatalf("conversations wallet index still present after rollback")
	}
}
