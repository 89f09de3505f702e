package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/config"
	"github.com/chainsafe/crosschain-bridge/pkg/migrations/bridgedb"
	"github.com/chainsafe/crosschain-bridge/pkg/pgutil"
	mghelper "github.com/chainsafe/crosschain-bridge/pkg/pgutil/migrations"
)

func usage() {
	mghelper.Usage(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading configuration file: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Running bridge database migrations", zap.String("database", cfg.Database.Database))

	migrator := migrate.NewMigrator(db, bridgedb.Migrations)
	if err := mghelper.Run(context.Background(), migrator, logger, flag.Args()...); err != nil {
		if errors.Is(err, mghelper.ErrNoCommand) {
			usage()
			os.Exit(2)
		}
		logger.Fatal("Migration failed", zap.Error(err))
	}
}
