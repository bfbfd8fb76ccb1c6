// Package migrations incorpora gli script SQL del game-svc.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.sql
var files embed.FS

// FS espone gli script incorporati.
func FS() fs.FS {
	return files
}

// Names ritorna i nomi degli script in ordine di applicazione.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
