// Package migrations holds the versioned SQLite schema and applies it.
//
// Files are named NNN_description.up.sql and NNN_description.down.sql.
// The applied version is kept in PRAGMA user_version.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Migration is one schema step.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// All returns the embedded migrations ordered by version.
func All() ([]Migration, error) {
	return load(files)
}

// Latest returns the highest embedded version.
func Latest() int {
	all, err := All()
	if err != nil || len(all) == 0 {
		return 0
	}
	return all[len(all)-1].Version
}

// Version reads the schema version recorded in the database.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Apply runs every migration newer than the recorded version, each in its
// own transaction, and returns the resulting version. A database written by
// a newer build is refused.
func Apply(ctx context.Context, db *sql.DB) (int, error) {
	all, err := All()
	if err != nil {
		return 0, err
	}

	current, err := Version(ctx, db)
	if err != nil {
		return 0, err
	}
	if n := len(all); n > 0 && current > all[n-1].Version {
		return current, fmt.Errorf("schema version %d is newer than this build supports (%d)", current, all[n-1].Version)
	}

	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := step(ctx, db, m.Version, m.Up); err != nil {
			return current, fmt.Errorf("migration %03d_%s: %w", m.Version, m.Name, err)
		}
		current = m.Version
	}
	return current, nil
}

// Rollback undoes migrations down to target.
func Rollback(ctx context.Context, db *sql.DB, target int) error {
	all, err := All()
	if err != nil {
		return err
	}
	current, err := Version(ctx, db)
	if err != nil {
		return err
	}

	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if m.Version > current || m.Version <= target {
			continue
		}
		if err := step(ctx, db, m.Version-1, m.Down); err != nil {
			return fmt.Errorf("rollback %03d_%s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func step(ctx context.Context, db *sql.DB, version int, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if strings.TrimSpace(script) != "" {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return err
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}

func load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		name := e.Name()
		base, dir, ok := splitName(name)
		if !ok {
			continue
		}
		var version int
		var label string
		if n, _ := fmt.Sscanf(base, "%d_%s", &version, &label); n != 2 || version <= 0 {
			return nil, fmt.Errorf("malformed migration name %q", name)
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: label}
			byVersion[version] = m
		} else if m.Name != label {
			return nil, fmt.Errorf("version %d used by %q and %q", version, m.Name, label)
		}
		if dir == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %03d_%s has no up script", m.Version, m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// splitName turns "001_initial.up.sql" into ("001_initial", "up").
func splitName(name string) (string, string, bool) {
	stem, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return "", "", false
	}
	if base, ok := strings.CutSuffix(stem, ".up"); ok {
		return base, "up", true
	}
	if base, ok := strings.CutSuffix(stem, ".down"); ok {
		return base, "down", true
	}
	return "", "", false
}
