package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	liquiditypg "github.com/chainsafe/crosschain-bridge/pkg/liquidity/store/pg"
	mghelper "github.com/chainsafe/crosschain-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating liquidity_pools table...")
		return mghelper.CreateSchema(ctx, db, &liquiditypg.PoolDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping liquidity_pools table...")
		return mghelper.DropTables(ctx, db, &liquiditypg.PoolDao{})
	})
}
