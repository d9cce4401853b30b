// Package dbutil holds database connection helpers shared by the server and
// the migration tool.
package dbutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/scrtlabs/trading-middleware/pkg/config"
)

// ConnectDB creates a connection to the configured database. The sqlite
// driver serves local development and small deployments; postgres serves
// everything else. Both go through bun so the stores are dialect-agnostic.
func ConnectDB(cfg *config.DatabaseConfig) (*bun.DB, error) {
	ctx := context.Background()

	var db *bun.DB
	switch cfg.Driver {
	case config.DriverSqlite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err)
		}
		// sqlite serializes writes; a single connection avoids SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())

	case config.DriverPostgres:
		connector := pgdriver.NewConnector(
			pgdriver.WithNetwork("tcp"),
			pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
			pgdriver.WithUser(cfg.User),
			pgdriver.WithPassword(cfg.Password),
			pgdriver.WithDatabase(cfg.Database),
			pgdriver.WithInsecure(cfg.SSLMode == "disable"),
		)
		db = bun.NewDB(sql.OpenDB(connector), pgdialect.New())

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	return db, nil
}
