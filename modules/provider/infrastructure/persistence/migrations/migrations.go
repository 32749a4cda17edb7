// Package migrations embeds the provider schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
