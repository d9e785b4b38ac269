// Package migrate applies the SQL migrations registered by the modules with
// goose. Every module keeps its own schema directory; version numbers are
// global, so module files must not reuse one another's versions.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Runner struct {
	db       *sql.DB
	provider *goose.Provider
}

func New(pool *pgxpool.Pool, sources ...fs.FS) (*Runner, error) {
	fsys, err := Union(sources...)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Runner{db: db, provider: provider}, nil
}

func (r *Runner) Up(ctx context.Context) ([]*goose.MigrationResult, error) {
	return r.provider.Up(ctx)
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) (*goose.MigrationResult, error) {
	return r.provider.Down(ctx)
}

func (r *Runner) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	return r.provider.Status(ctx)
}

func (r *Runner) Close() error {
	return errors.Join(r.provider.Close(), r.db.Close())
}

// Union flattens the top-level *.sql files of every source into one
// read-only file system. A file name present in two sources is an error.
func Union(sources ...fs.FS) (fs.FS, error) {
	u := unionFS{owner: map[string]fs.FS{}}
	for _, src := range sources {
		names, err := fs.Glob(src, "*.sql")
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, dup := u.owner[name]; dup {
				return nil, fmt.Errorf("migrate: %s is provided twice", name)
			}
			u.owner[name] = src
		}
	}
	return u, nil
}

type unionFS struct {
	owner map[string]fs.FS
}

func (u unionFS) Open(name string) (fs.File, error) {
	if name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	src, ok := u.owner[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return src.Open(name)
}

func (u unionFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	entries := make([]fs.DirEntry, 0, len(u.owner))
	for file, src := range u.owner {
		info, err := fs.Stat(src, file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}
