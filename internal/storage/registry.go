package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/quintal-labs/graphmem/internal/models"
)

// registrySchema is the schema for the registry.db database at the base dir.
const registrySchema = `
CREATE TABLE IF NOT EXISTS projects (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL UNIQUE,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    last_used_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
`

// Registry tracks every project identifier this server has touched. It is
// advisory bookkeeping for list_projects; the record files remain the source
// of truth for graph data.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (or creates) registry.db under the base directory and
// runs migrations.
func OpenRegistry(baseDir string) (*Registry, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create base dir: %v", ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(baseDir, "registry.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("%w: open registry db: %v", ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate registry db: %v", ErrStorageUnavailable, err)
	}
	return &Registry{db: db}, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Touch records use of a project, inserting it on first sight.
func (r *Registry) Touch(name string) error {
	res, err := r.db.Exec(`UPDATE projects SET last_used_at = datetime('now') WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.Exec(
		`INSERT INTO projects (id, name) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_used_at = datetime('now')`,
		uuid.New().String(), name,
	)
	if err != nil {
		return fmt.Errorf("register project: %w", err)
	}
	return nil
}

// List returns all registered projects ordered by name.
func (r *Registry) List() ([]models.Project, error) {
	rows, err := r.db.Query(
		`SELECT id, name, created_at, last_used_at FROM projects ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes a project's registry entry. Unknown names are a no-op.
func (r *Registry) Delete(name string) error {
	if _, err := r.db.Exec(`DELETE FROM projects WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete project record: %w", err)
	}
	return nil
}
