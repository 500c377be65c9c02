package sql

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
)

// schemaDir holds the migrations, named <sequence>_<description>.sql
const schemaDir = "schema"

//go:embed schema/*.sql
var schemaFS embed.FS

var errUnknownMigration = errors.New("unknown migration")

// Migrations returns the names of the embedded migrations, in apply order
func Migrations() ([]string, error) {
	paths, err := fs.Glob(schemaFS, path.Join(schemaDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("unable to list migrations, %w", err)
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, path.Base(p))
	}

	// The sequence prefix is zero-padded
	slices.Sort(names)

	return names, nil
}

// Migration returns the SQL of the named embedded migration
func Migration(name string) (string, error) {
	if name != path.Base(name) {
		return "", fmt.Errorf("%w: %q", errUnknownMigration, name)
	}

	b, err := schemaFS.ReadFile(path.Join(schemaDir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %q", errUnknownMigration, name)
	}

	return string(b), nil
}
