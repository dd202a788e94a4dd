// Package migrations содержит встроенные SQL-миграции схемы PostgreSQL.
// Применяются через pkg/database.RunMigrations при старте сервиса.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
