// Package migrations holds the SQL schema of the development session
// service.
package migrations

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed *.sql
var files embed.FS

// Source returns the migrations in dir, or the embedded set when dir is
// empty.
func Source(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return files
}
