// Package migrations embeds the SQL schema for each supported dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// For returns the migration files for a dialect directory ("sqlite" or "postgres").
func For(dir string) (fs.FS, error) {
	return fs.Sub(files, dir)
}
