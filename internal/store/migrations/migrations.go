// Package migrations embeds the schema, applied in order by database.Migrator.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
