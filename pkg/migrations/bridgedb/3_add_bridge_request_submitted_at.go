package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	bridgepg "github.com/chainsafe/crosschain-bridge/pkg/bridge/store/pg"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("adding submitted_at to bridge_requests...")
		_, err := db.NewAddColumn().
			Model(&bridgepg.RequestDao{}).
			ColumnExpr("submitted_at TIMESTAMPTZ").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping submitted_at from bridge_requests...")
		_, err := db.ExecContext(ctx, "ALTER TABLE IF EXISTS bridge_requests DROP COLUMN IF EXISTS submitted_at")
		return err
	})
}
