// Package bridgedb holds all the migrations for the bridge database
package bridgedb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the bridge database
var Migrations = migrate.NewMigrations()
