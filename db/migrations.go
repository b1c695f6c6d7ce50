// Package db embeds the SQL migrations shared by PostgreSQL and SQLite.
package db

import "embed"

// Migrations holds the golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
