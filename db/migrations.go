// Package db ships the Postgres schema for the JSONB document store.
package db

import "embed"

// Migrations holds the ordered *.up.sql / *.down.sql files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
