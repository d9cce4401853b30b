package agentdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/scrtlabs/trading-middleware/pkg/dbutil/migrations"
	"github.com/scrtlabs/trading-middleware/pkg/memory"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating conversations table...")
		if err := mghelper.CreateSchema(ctx, db, &memory.ConversationDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &memory.ConversationDao{}, "wallet_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping conversations table...")
		if err := mghelper.DropModelIndexes(ctx, db, &memory.ConversationDao{}, "wallet_address"); err != nil {
			return err
		}
		return mghelper.DropTables(ctx, db, &memory.ConversationDao{})
	})
}
