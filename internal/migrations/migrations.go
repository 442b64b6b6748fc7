// Package migrations embeds the PostgreSQL schema shared by the API and worker.
package migrations

import "embed"

// Dir is the directory inside FS holding the migration files
const Dir = "sql"

// FS holds the numbered golang-migrate up/down files
//
//go:embed sql/*.sql
var FS embed.FS
