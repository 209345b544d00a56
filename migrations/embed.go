// Package migrations embeds the goose SQL migrations for the relational
// stores, one directory per dialect.
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	MySQLDir    = "mysql"
)
