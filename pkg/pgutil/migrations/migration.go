// Package migrations holds schema helpers shared by migration sets and the migrate command.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

const usageText = `Usage:
  bridge-migrate [-config config.yaml] <command>

Commands:
  init    creates the migration tables
  up      runs all pending migrations
  down    reverts the last migration group
  status  prints migration status
`

// ErrNoCommand is returned by Run when no command is given.
var ErrNoCommand = errors.New("no command provided")

// Usage writes the command usage to w.
func Usage(w io.Writer) {
	_, _ = io.WriteString(w, usageText)
}

// CreateSchema creates the tables of models if they do not exist.
func CreateSchema(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropTables drops the tables of models.
func DropTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewDropTable().
			Model(model).
			IfExists().
			Cascade().
			Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", model, err)
		}
	}
	return nil
}

// TruncateTables removes every row from the tables of models.
func TruncateTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewTruncateTable().
			Model(model).
			Exec(ctx); err != nil {
			return fmt.Errorf("truncate table for %T: %w", model, err)
		}
	}
	return nil
}

// CreateModelIndexes creates one idx_<table>_<column> index per column.
func CreateModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	for _, column := range columns {
		indexName, err := ModelIndexName(db, model, column)
		if err != nil {
			return err
		}
		if _, err = db.NewCreateIndex().
			Model(model).
			Index(indexName).
			Column(column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", indexName, err)
		}
	}
	return nil
}

// CreateExprIndex creates an index named idx_<table>_<name> over a SQL expression,
// e.g. lower(target_address).
func CreateExprIndex(ctx context.Context, db bun.IDB, model any, name, expr string) error {
	indexName, err := ModelIndexName(db, model, name)
	if err != nil {
		return err
	}
	if _, err = db.NewCreateIndex().
		Model(model).
		Index(indexName).
		ColumnExpr(expr).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// DropModelIndexes drops the indexes created by CreateModelIndexes or CreateExprIndex.
func DropModelIndexes(ctx context.Context, db bun.IDB, model any, names ...string) error {
	for _, name := range names {
		indexName, err := ModelIndexName(db, model, name)
		if err != nil {
			return err
		}
		if _, err = db.NewDropIndex().
			Index(indexName).
			IfExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("drop index %s: %w", indexName, err)
		}
	}
	return nil
}

// ModelIndexName returns idx_<table>_<name> for the table of model.
func ModelIndexName(db bun.IDB, model any, name string) (string, error) {
	if model == nil {
		return "", fmt.Errorf("model cannot be nil")
	}
	tableName := db.NewCreateIndex().Model(model).GetTableName()
	if tableName == "" {
		return "", fmt.Errorf("failed to resolve table name for model %T", model)
	}
	indexTableName := strings.NewReplacer(`"`, "", ".", "_").Replace(tableName)
	return fmt.Sprintf("idx_%s_%s", indexTableName, name), nil
}

// Run executes a migrate command (init, up, down, status) with migrator.
func Run(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger, args ...string) error {
	if len(args) == 0 {
		return ErrNoCommand
	}

	switch args[0] {
	case "init":
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("init migrations: %w", err)
		}
		logger.Info("Migration tables created")
		return nil

	case "up":
		return withLock(ctx, migrator, logger, func() error {
			group, err := migrator.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if group.IsZero() {
				logger.Info("No new migrations to run")
				return nil
			}
			logger.Info("Migrated", zap.Stringer("group", group))
			return nil
		})

	case "down":
		return withLock(ctx, migrator, logger, func() error {
			group, err := migrator.Rollback(ctx)
			if err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
			if group.IsZero() {
				logger.Info("No migrations to roll back")
				return nil
			}
			logger.Info("Rolled back", zap.Stringer("group", group))
			return nil
		})

	case "status":
		ms, err := migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		logger.Info("Migration status",
			zap.Stringer("migrations", ms),
			zap.Stringer("unapplied", ms.Unapplied()),
			zap.Stringer("last_group", ms.LastGroup()),
		)
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func withLock(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger, fn func() error) error {
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.Warn("Failed to release migration lock", zap.Error(err))
		}
	}()
	return fn()
}
