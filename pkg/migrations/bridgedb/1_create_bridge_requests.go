package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	bridgepg "github.com/chainsafe/crosschain-bridge/pkg/bridge/store/pg"
	mghelper "github.com/chainsafe/crosschain-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating bridge_requests table...")
		if err := mghelper.CreateSchema(ctx, db, &bridgepg.RequestDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &bridgepg.RequestDao{}, "status", "created_at"); err != nil {
			return err
		}
		// history lookups match addresses case-insensitively
		return mghelper.CreateExprIndex(ctx, db, &bridgepg.RequestDao{}, "target_address_lower", "lower(target_address)")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_requests table...")
		return mghelper.DropTables(ctx, db, &bridgepg.RequestDao{})
	})
}
