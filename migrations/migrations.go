// Package migrations embeds the versioned SQL applied by goose after AutoMigrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
