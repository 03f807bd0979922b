// Package migrations embeds the SQLite schema migrations.
package migrations

import "embed"

// FS holds the ordered *.up.sql migrations.
//
//go:embed *.up.sql
var FS embed.FS
