package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// -----------------------------------------------------------------------------
// Guideline Set Methods
// -----------------------------------------------------------------------------

// CreateGuidelineSet creates a named guideline set, optionally scoped to
// a project
func (db *DB) CreateGuidelineSet(ctx context.Context, projectID *int64, name, description string) (*GuidelineSet, error) {
	var s GuidelineSet
	err := db.pool.QueryRow(ctx,
		`INSERT INTO guideline_sets (project_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, project_id, name, description, created_at`,
		projectID, name, description,
	).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create guideline set: %w", err)
	}
	return &s, nil
}

// GetGuidelineSet retrieves a guideline set by ID
func (db *DB) GetGuidelineSet(ctx context.Context, id int64) (*GuidelineSet, error) {
	var s GuidelineSet
	err := db.pool.QueryRow(ctx,
		`SELECT id, project_id, name, description, created_at
		 FROM guideline_sets WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get guideline set: %w", err)
	}
	return &s, nil
}

// ListGuidelineSets retrieves guideline sets, optionally filtered by project
func (db *DB) ListGuidelineSets(ctx context.Context, projectID *int64) ([]GuidelineSet, error) {
	query := `SELECT id, project_id, name, description, created_at FROM guideline_sets WHERE 1=1`
	args := []any{}

	if projectID != nil {
		query += " AND project_id = $1"
		args = append(args, *projectID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guideline sets: %w", err)
	}
	defer rows.Close()

	var sets []GuidelineSet
	for rows.Next() {
		var s GuidelineSet
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guideline set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, nil
}

// -----------------------------------------------------------------------------
// Guideline Version Methods
// -----------------------------------------------------------------------------

// CreateGuidelineVersion creates the next version for a set. Version
// numbers start at 1 and increase by one per upload.
func (db *DB) CreateGuidelineVersion(ctx context.Context, setID int64, manifest []byte) (*GuidelineVersion, error) {
	var v GuidelineVersion
	var manifestJSON []byte
	err := db.pool.QueryRow(ctx,
		`INSERT INTO guideline_versions (set_id, version, manifest_json)
		 SELECT $1, COALESCE(MAX(version), 0) + 1, $2::jsonb
		 FROM guideline_versions WHERE set_id = $1
		 RETURNING id, set_id, version, manifest_json, is_active, created_at`,
		setID, manifest,
	).Scan(&v.ID, &v.SetID, &v.Version, &manifestJSON, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create guideline version: %w", err)
	}
	v.Manifest = manifestJSON
	return &v, nil
}

// GetGuidelineVersion retrieves a version by ID
func (db *DB) GetGuidelineVersion(ctx context.Context, id int64) (*GuidelineVersion, error) {
	var v GuidelineVersion
	var manifestJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, set_id, version, manifest_json, is_active, created_at
		 FROM guideline_versions WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.SetID, &v.Version, &manifestJSON, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get guideline version: %w", err)
	}
	v.Manifest = manifestJSON
	return &v, nil
}

// GetGuidelineVersionByNumber retrieves a specific version of a set
func (db *DB) GetGuidelineVersionByNumber(ctx context.Context, setID int64, version int) (*GuidelineVersion, error) {
	var v GuidelineVersion
	var manifestJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, set_id, version, manifest_json, is_active, created_at
		 FROM guideline_versions WHERE set_id = $1 AND version = $2`,
		setID, version,
	).Scan(&v.ID, &v.SetID, &v.Version, &manifestJSON, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get guideline version: %w", err)
	}
	v.Manifest = manifestJSON
	return &v, nil
}

// ListGuidelineVersions retrieves all versions of a set, newest first
func (db *DB) ListGuidelineVersions(ctx context.Context, setID int64) ([]GuidelineVersion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, set_id, version, manifest_json, is_active, created_at
		 FROM guideline_versions WHERE set_id = $1
		 ORDER BY version DESC`,
		setID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guideline versions: %w", err)
	}
	defer rows.Close()

	var versions []GuidelineVersion
	for rows.Next() {
		var v GuidelineVersion
		var manifestJSON []byte
		if err := rows.Scan(&v.ID, &v.SetID, &v.Version, &manifestJSON, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guideline version: %w", err)
		}
		v.Manifest = manifestJSON
		versions = append(versions, v)
	}
	return versions, nil
}

// RuleCountsByVersion counts the persisted rules of each given version in
// one query. Versions with no rules are absent from the map.
func (db *DB) RuleCountsByVersion(ctx context.Context, versionIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(versionIDs))
	if len(versionIDs) == 0 {
		return counts, nil
	}
	rows, err := db.pool.Query(ctx,
		`SELECT version_id, COUNT(*) FROM guideline_rules
		 WHERE version_id = ANY($1)
		 GROUP BY version_id`,
		versionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count guideline rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var versionID int64
		var count int
		if err := rows.Scan(&versionID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rule count: %w", err)
		}
		counts[versionID] = count
	}
	return counts, nil
}

// ActiveGuidelineVersion retrieves the active version of a set, or nil
// when none has been activated
func (db *DB) ActiveGuidelineVersion(ctx context.Context, setID int64) (*GuidelineVersion, error) {
	var v GuidelineVersion
	var manifestJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, set_id, version, manifest_json, is_active, created_at
		 FROM guideline_versions WHERE set_id = $1 AND is_active
		 ORDER BY version DESC LIMIT 1`,
		setID,
	).Scan(&v.ID, &v.SetID, &v.Version, &manifestJSON, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active guideline version: %w", err)
	}
	v.Manifest = manifestJSON
	return &v, nil
}

// ActivateGuidelineVersion makes a version the active one for its set,
// deactivating any previously active version
func (db *DB) ActivateGuidelineVersion(ctx context.Context, versionID int64) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin activation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var setID int64
	err = tx.QueryRow(ctx,
		`SELECT set_id FROM guideline_versions WHERE id = $1`, versionID).Scan(&setID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("guideline version %d: %w", versionID, ErrNotFound)
		}
		return fmt.Errorf("failed to look up guideline version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE guideline_versions SET is_active = FALSE WHERE set_id = $1 AND is_active`, setID); err != nil {
		return fmt.Errorf("failed to deactivate versions: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE guideline_versions SET is_active = TRUE WHERE id = $1`, versionID); err != nil {
		return fmt.Errorf("failed to activate version: %w", err)
	}

	return tx.Commit(ctx)
}

// -----------------------------------------------------------------------------
// Guideline Rule Methods
// -----------------------------------------------------------------------------

// InsertGuidelineRules upserts extracted rules for a version and returns
// the stored rows. Inserts are pipelined in batches; RETURNING supplies
// the row IDs embeddings and issues link against.
func (db *DB) InsertGuidelineRules(ctx context.Context, versionID int64, inputs []GuidelineRuleInput) ([]GuidelineRule, error) {
	out := make([]GuidelineRule, 0, len(inputs))

	for start := 0; start < len(inputs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		chunk := inputs[start:end]

		batch := &pgx.Batch{}
		for _, in := range chunk {
			examples := in.Examples
			if examples == nil {
				examples = []string{}
			}
			examplesJSON, _ := json.Marshal(examples)

			batch.Queue(`
INSERT INTO guideline_rules (version_id, rule_id, category, rule_text, severity, examples, fix_template, source_file, section)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
ON CONFLICT (version_id, rule_id) DO UPDATE SET
  category = EXCLUDED.category,
  rule_text = EXCLUDED.rule_text,
  severity = EXCLUDED.severity,
  examples = EXCLUDED.examples,
  fix_template = EXCLUDED.fix_template,
  source_file = EXCLUDED.source_file,
  section = EXCLUDED.section
RETURNING id, version_id, rule_id, category, rule_text, severity, examples, fix_template, source_file, section, created_at`,
				versionID,
				in.RuleID,
				coalesceString(in.Category, "content"),
				in.RuleText,
				coalesceString(in.Severity, "medium"),
				string(examplesJSON),
				in.FixTemplate,
				in.SourceFile,
				in.Section,
			)
		}

		br := db.pool.SendBatch(ctx, batch)
		for range chunk {
			var r GuidelineRule
			var examplesJSON []byte
			if err := br.QueryRow().Scan(&r.ID, &r.VersionID, &r.RuleID, &r.Category, &r.RuleText,
				&r.Severity, &examplesJSON, &r.FixTemplate, &r.SourceFile, &r.Section, &r.CreatedAt); err != nil {
				_ = br.Close()
				return nil, fmt.Errorf("failed to insert guideline rule: %w", err)
			}
			if examplesJSON != nil {
				_ = json.Unmarshal(examplesJSON, &r.Examples)
			}
			out = append(out, r)
		}
		if err := br.Close(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ListGuidelineRules retrieves all rules for a version
func (db *DB) ListGuidelineRules(ctx context.Context, versionID int64) ([]GuidelineRule, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, version_id, rule_id, category, rule_text, severity, examples, fix_template, source_file, section, created_at
		 FROM guideline_rules
		 WHERE version_id = $1
		 ORDER BY rule_id`,
		versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guideline rules: %w", err)
	}
	defer rows.Close()

	var rules []GuidelineRule
	for rows.Next() {
		var r GuidelineRule
		var examplesJSON []byte
		if err := rows.Scan(&r.ID, &r.VersionID, &r.RuleID, &r.Category, &r.RuleText,
			&r.Severity, &examplesJSON, &r.FixTemplate, &r.SourceFile, &r.Section, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guideline rule: %w", err)
		}
		if examplesJSON != nil {
			_ = json.Unmarshal(examplesJSON, &r.Examples)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// RuleIDMap maps a version's rule ID strings to their row PKs
func (db *DB) RuleIDMap(ctx context.Context, versionID int64) (map[string]int64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rule_id, id FROM guideline_rules WHERE version_id = $1`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule ID map: %w", err)
	}
	defer rows.Close()

	m := make(map[string]int64)
	for rows.Next() {
		var ruleID string
		var id int64
		if err := rows.Scan(&ruleID, &id); err != nil {
			return nil, err
		}
		m[ruleID] = id
	}
	return m, nil
}

// UpdateRuleEmbedding stores the embedding vector for a rule
func (db *DB) UpdateRuleEmbedding(ctx context.Context, ruleID int64, embedding []float32) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE guideline_rules SET embedding = $2::vector WHERE id = $1`,
		ruleID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to update rule embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("guideline rule %d: %w", ruleID, ErrNotFound)
	}
	return nil
}

// SimilarGuidelineRules finds the rules in a version closest to the
// query embedding by cosine distance. Rules without an embedding are
// skipped.
func (db *DB) SimilarGuidelineRules(ctx context.Context, versionID int64, embedding []float32, limit int) ([]RuleMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, version_id, rule_id, category, rule_text, severity, examples, fix_template, source_file, section, created_at,
		       embedding <=> $2::vector AS distance
		FROM guideline_rules
		WHERE version_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2::vector
		LIMIT $3`,
		versionID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search guideline rules: %w", err)
	}
	defer rows.Close()

	var matches []RuleMatch
	for rows.Next() {
		var m RuleMatch
		var examplesJSON []byte
		if err := rows.Scan(&m.Rule.ID, &m.Rule.VersionID, &m.Rule.RuleID, &m.Rule.Category, &m.Rule.RuleText,
			&m.Rule.Severity, &examplesJSON, &m.Rule.FixTemplate, &m.Rule.SourceFile, &m.Rule.Section,
			&m.Rule.CreatedAt, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan rule match: %w", err)
		}
		if examplesJSON != nil {
			_ = json.Unmarshal(examplesJSON, &m.Rule.Examples)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func coalesceString(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
