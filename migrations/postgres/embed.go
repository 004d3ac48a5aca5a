// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the PostgreSQL migrations for the bridge schema.
//
//go:embed *.sql
var FS embed.FS
