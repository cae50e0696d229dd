// Package migrations embeds the postgres schema migrations so binaries do not
// depend on the working directory.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files of this directory
//
//go:embed *.sql
var FS embed.FS
