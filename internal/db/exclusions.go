package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// -----------------------------------------------------------------------------
// Exclusion Profile Methods
// -----------------------------------------------------------------------------

// CreateExclusionProfile creates a named exclusion profile. When
// isDefault is set, any previous default for the project is cleared.
func (db *DB) CreateExclusionProfile(ctx context.Context, projectID *int64, name string, isDefault bool) (*ExclusionProfile, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin profile create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if isDefault && projectID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE exclusion_profiles SET is_default = FALSE WHERE project_id = $1 AND is_default`,
			*projectID); err != nil {
			return nil, fmt.Errorf("failed to clear default profile: %w", err)
		}
	}

	var p ExclusionProfile
	err = tx.QueryRow(ctx,
		`INSERT INTO exclusion_profiles (project_id, name, is_default)
		 VALUES ($1, $2, $3)
		 RETURNING id, project_id, name, is_default, created_at`,
		projectID, name, isDefault,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.IsDefault, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exclusion profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetExclusionProfile retrieves a profile by ID
func (db *DB) GetExclusionProfile(ctx context.Context, id int64) (*ExclusionProfile, error) {
	var p ExclusionProfile
	err := db.pool.QueryRow(ctx,
		`SELECT id, project_id, name, is_default, created_at
		 FROM exclusion_profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.IsDefault, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exclusion profile: %w", err)
	}
	return &p, nil
}

// GetDefaultExclusionProfile retrieves a project's default profile, or
// nil when none is marked default
func (db *DB) GetDefaultExclusionProfile(ctx context.Context, projectID int64) (*ExclusionProfile, error) {
	var p ExclusionProfile
	err := db.pool.QueryRow(ctx,
		`SELECT id, project_id, name, is_default, created_at
		 FROM exclusion_profiles WHERE project_id = $1 AND is_default
		 LIMIT 1`,
		projectID,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.IsDefault, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default profile: %w", err)
	}
	return &p, nil
}

// ListExclusionProfiles retrieves profiles, optionally filtered by project
func (db *DB) ListExclusionProfiles(ctx context.Context, projectID *int64) ([]ExclusionProfile, error) {
	query := `SELECT id, project_id, name, is_default, created_at FROM exclusion_profiles WHERE 1=1`
	args := []any{}

	if projectID != nil {
		query += " AND project_id = $1"
		args = append(args, *projectID)
	}
	query += " ORDER BY created_at"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusion profiles: %w", err)
	}
	defer rows.Close()

	var profiles []ExclusionProfile
	for rows.Next() {
		var p ExclusionProfile
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.IsDefault, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// DeleteExclusionProfile deletes a profile and its rules (via cascade)
func (db *DB) DeleteExclusionProfile(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM exclusion_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exclusion profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("exclusion profile %d: %w", id, ErrNotFound)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Exclusion Rule Methods
// -----------------------------------------------------------------------------

// AddExclusionRule adds a rule to a profile
func (db *DB) AddExclusionRule(ctx context.Context, profileID int64, ruleType types.ExclusionRuleType, ruleValue, reason string) (*ExclusionRule, error) {
	var r ExclusionRule
	err := db.pool.QueryRow(ctx,
		`INSERT INTO exclusion_rules (profile_id, rule_type, rule_value, reason)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, profile_id, rule_type, rule_value, reason, created_at`,
		profileID, ruleType, ruleValue, reason,
	).Scan(&r.ID, &r.ProfileID, &r.RuleType, &r.RuleValue, &r.Reason, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add exclusion rule: %w", err)
	}
	return &r, nil
}

// ListExclusionRules retrieves all rules of a profile in insertion order
func (db *DB) ListExclusionRules(ctx context.Context, profileID int64) ([]ExclusionRule, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, profile_id, rule_type, rule_value, reason, created_at
		 FROM exclusion_rules
		 WHERE profile_id = $1
		 ORDER BY id`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusion rules: %w", err)
	}
	defer rows.Close()

	var rules []ExclusionRule
	for rows.Next() {
		var r ExclusionRule
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.RuleType, &r.RuleValue, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// DeleteExclusionRule deletes a single rule
func (db *DB) DeleteExclusionRule(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM exclusion_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exclusion rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("exclusion rule %d: %w", id, ErrNotFound)
	}
	return nil
}
