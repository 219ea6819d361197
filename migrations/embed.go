// Package migrations embeds the SQL schema applied at start-up and by repository tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
