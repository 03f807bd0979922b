// Package migrations embeds the postgres schema.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
