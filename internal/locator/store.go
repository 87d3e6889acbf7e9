// Package locator persists the resource locators the remote backend hands
// out, so a later call never has to re-resolve a tracker project or issue
// id by name. It is a narrow, hand-written SQLite mirror: one table per
// resource, no generated query layer, because the remote backend only ever
// needs point lookups and per-project listings.
package locator

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foundry-mcp/foundry/internal/backend/remote"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed remote.Store.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path, initializing the schema.
// An incompatible existing schema is treated the same as a corrupt cache:
// the file is removed and recreated, since everything it holds is a
// recoverable mirror of tracker state, never the source of truth.
func Open(path string) (*Store, error) {
	store, err := openDB(path)
	if err != nil {
		if strings.Contains(err.Error(), "no such column") || strings.Contains(err.Error(), "no such table") {
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("remove incompatible locator cache: %w", removeErr)
			}
			os.Remove(path + "-wal")
			os.Remove(path + "-shm")
			return openDB(path)
		}
		return nil, err
	}
	return store, nil
}

func openDB(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create locator directory: %w", err)
		}
	}

	escaped := strings.ReplaceAll(path, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escaped+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open locator database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize locator schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetProject(ctx context.Context, name string) (remote.ProjectRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT project_id, created_at FROM projects WHERE name = ?`, name)
	var rec remote.ProjectRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return remote.ProjectRecord{}, false, nil
		}
		return remote.ProjectRecord{}, false, fmt.Errorf("get project %q: %w", name, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, true, nil
}

func (s *Store) PutProject(ctx context.Context, name string, rec remote.ProjectRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, project_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET project_id = excluded.project_id`,
		name, rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put project %q: %w", name, err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) (map[string]remote.ProjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, project_id, created_at FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make(map[string]remote.ProjectRecord)
	for rows.Next() {
		var name, createdAt string
		var rec remote.ProjectRecord
		if err := rows.Scan(&name, &rec.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out[name] = rec
	}
	return out, rows.Err()
}

func (s *Store) GetSpec(ctx context.Context, project, spec string) (remote.SpecRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, issue_id, notes_document_id, issue_url, notes_url, feature_name, created_at
		FROM specs WHERE project_name = ? AND spec_name = ?`, project, spec)
	var rec remote.SpecRecord
	var createdAt string
	if err := row.Scan(&rec.ProjectID, &rec.IssueID, &rec.NotesDocumentID, &rec.IssueURL, &rec.NotesURL, &rec.FeatureName, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return remote.SpecRecord{}, false, nil
		}
		return remote.SpecRecord{}, false, fmt.Errorf("get spec %q/%q: %w", project, spec, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, true, nil
}

func (s *Store) PutSpec(ctx context.Context, project, spec string, rec remote.SpecRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO specs (project_name, spec_name, project_id, issue_id, notes_document_id, issue_url, notes_url, feature_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_name, spec_name) DO UPDATE SET
			project_id = excluded.project_id,
			issue_id = excluded.issue_id,
			notes_document_id = excluded.notes_document_id,
			issue_url = excluded.issue_url,
			notes_url = excluded.notes_url,
			feature_name = excluded.feature_name`,
		project, spec, rec.ProjectID, rec.IssueID, rec.NotesDocumentID, rec.IssueURL, rec.NotesURL, rec.FeatureName,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put spec %q/%q: %w", project, spec, err)
	}
	return nil
}

func (s *Store) DeleteSpec(ctx context.Context, project, spec string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM specs WHERE project_name = ? AND spec_name = ?`, project, spec)
	if err != nil {
		return fmt.Errorf("delete spec %q/%q: %w", project, spec, err)
	}
	return nil
}

func (s *Store) ListSpecs(ctx context.Context, project string) (map[string]remote.SpecRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT spec_name, project_id, issue_id, notes_document_id, issue_url, notes_url, feature_name, created_at
		FROM specs WHERE project_name = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("list specs for %q: %w", project, err)
	}
	defer rows.Close()

	out := make(map[string]remote.SpecRecord)
	for rows.Next() {
		var name, createdAt string
		var rec remote.SpecRecord
		if err := rows.Scan(&name, &rec.ProjectID, &rec.IssueID, &rec.NotesDocumentID, &rec.IssueURL, &rec.NotesURL, &rec.FeatureName, &createdAt); err != nil {
			return nil, fmt.Errorf("scan spec row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out[name] = rec
	}
	return out, rows.Err()
}

var _ remote.Store = (*Store)(nil)
