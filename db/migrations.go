// Package db holds the versioned PostgreSQL schema.
package db

import "embed"

// Migrations contains the golang-migrate SQL files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
