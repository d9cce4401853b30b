package agentdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/scrtlabs/trading-middleware/pkg/dbutil/migrations"
	"github.com/scrtlabs/trading-middleware/pkg/userstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating trading_state table...")
		return mghelper.CreateSchema(ctx, db, &userstore.TradingStateDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping trading_state table...")
		return mghelper.DropTables(ctx, db, &userstore.TradingStateDao{})
	})
}
