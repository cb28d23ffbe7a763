package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Project Methods
// -----------------------------------------------------------------------------

// CreateProject registers a site, or refreshes it if the base URL is
// already known. Registration is idempotent on base_url.
func (db *DB) CreateProject(ctx context.Context, baseURL, name string) (*Project, error) {
	var p Project
	err := db.pool.QueryRow(ctx,
		`INSERT INTO projects (base_url, name)
		 VALUES ($1, $2)
		 ON CONFLICT (base_url) DO UPDATE
		 SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE projects.name END,
		     updated_at = NOW()
		 RETURNING id, name, base_url, created_at, updated_at`,
		baseURL, name,
	).Scan(&p.ID, &p.Name, &p.BaseURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, base_url, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.BaseURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// GetProjectByBaseURL retrieves a project by its base URL
func (db *DB) GetProjectByBaseURL(ctx context.Context, baseURL string) (*Project, error) {
	var p Project
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, base_url, created_at, updated_at
		 FROM projects WHERE base_url = $1`,
		baseURL,
	).Scan(&p.ID, &p.Name, &p.BaseURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListProjects retrieves all projects, newest first
func (db *DB) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, base_url, created_at, updated_at
		 FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// DeleteProject deletes a project and its guideline sets, exclusion
// profiles and scan history (via cascade)
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}
