package db

import "context"

// EnsureSchema creates all tables, indexes and the progress notify trigger
// if they do not exist. Safe to run on every startup.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS projects (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  base_url TEXT NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS guideline_sets (
  id BIGSERIAL PRIMARY KEY,
  project_id BIGINT REFERENCES projects(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS guideline_versions (
  id BIGSERIAL PRIMARY KEY,
  set_id BIGINT NOT NULL REFERENCES guideline_sets(id) ON DELETE CASCADE,
  version INTEGER NOT NULL,
  manifest_json JSONB,
  is_active BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE(set_id, version)
);

CREATE TABLE IF NOT EXISTS guideline_rules (
  id BIGSERIAL PRIMARY KEY,
  version_id BIGINT NOT NULL REFERENCES guideline_versions(id) ON DELETE CASCADE,
  rule_id TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT 'content',
  rule_text TEXT NOT NULL,
  severity TEXT NOT NULL DEFAULT 'medium',
  examples JSONB NOT NULL DEFAULT '[]'::jsonb,
  fix_template TEXT NOT NULL DEFAULT '',
  source_file TEXT NOT NULL DEFAULT '',
  section TEXT NOT NULL DEFAULT '',
  embedding vector(768),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE(version_id, rule_id)
);

CREATE TABLE IF NOT EXISTS exclusion_profiles (
  id BIGSERIAL PRIMARY KEY,
  project_id BIGINT REFERENCES projects(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  is_default BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exclusion_rules (
  id BIGSERIAL PRIMARY KEY,
  profile_id BIGINT NOT NULL REFERENCES exclusion_profiles(id) ON DELETE CASCADE,
  rule_type TEXT NOT NULL,
  rule_value TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scan_jobs (
  id UUID PRIMARY KEY,
  project_id BIGINT REFERENCES projects(id) ON DELETE SET NULL,
  guideline_version_id BIGINT REFERENCES guideline_versions(id) ON DELETE SET NULL,
  base_url TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','running','completed','failed','cancelled')),
  stage TEXT CHECK (stage IN ('discovering','scraping','parsing_guidelines','validating','running_tools','finalizing')),
  options_json JSONB,
  progress_seq BIGINT NOT NULL DEFAULT 0,
  progress_json JSONB,
  progress_at TIMESTAMPTZ,
  error_json JSONB,
  attempts INTEGER NOT NULL DEFAULT 0,
  cancel_requested BOOLEAN NOT NULL DEFAULT FALSE,
  worker_id TEXT,
  total_pages INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  claimed_at TIMESTAMPTZ,
  started_at TIMESTAMPTZ,
  finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scan_jobs_queue ON scan_jobs (status, created_at);
CREATE INDEX IF NOT EXISTS idx_scan_jobs_baseline ON scan_jobs (base_url, status, finished_at DESC);
CREATE INDEX IF NOT EXISTS idx_scan_jobs_project ON scan_jobs (project_id, status, finished_at DESC);

CREATE TABLE IF NOT EXISTS scan_pages (
  id BIGSERIAL PRIMARY KEY,
  job_id UUID NOT NULL REFERENCES scan_jobs(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT 'manual',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','scraping','done','failed','skipped')),
  content_hash TEXT NOT NULL DEFAULT '',
  word_count INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  scraped_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE(job_id, url)
);

CREATE TABLE IF NOT EXISTS page_chunks (
  id BIGSERIAL PRIMARY KEY,
  page_id BIGINT NOT NULL REFERENCES scan_pages(id) ON DELETE CASCADE,
  chunk_index INTEGER NOT NULL,
  heading_path TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL,
  token_estimate INTEGER NOT NULL DEFAULT 0,
  UNIQUE(page_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS issues (
  id UUID PRIMARY KEY,
  job_id UUID NOT NULL REFERENCES scan_jobs(id) ON DELETE CASCADE,
  page_url TEXT NOT NULL,
  page_title TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  type TEXT NOT NULL,
  severity TEXT NOT NULL CHECK (severity IN ('high','medium','low')),
  evidence TEXT NOT NULL DEFAULT '',
  explanation TEXT NOT NULL DEFAULT '',
  proposed_fix TEXT NOT NULL DEFAULT '',
  guideline_rule_pk BIGINT REFERENCES guideline_rules(id) ON DELETE SET NULL,
  source TEXT NOT NULL,
  confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
  fingerprint TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_issues_job_fingerprint ON issues (job_id, fingerprint);
CREATE INDEX IF NOT EXISTS idx_issues_job_severity ON issues (job_id, severity);
CREATE INDEX IF NOT EXISTS idx_guideline_rules_version ON guideline_rules (version_id);
CREATE INDEX IF NOT EXISTS idx_guideline_rules_embedding ON guideline_rules USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
CREATE INDEX IF NOT EXISTS idx_guideline_versions_active ON guideline_versions (set_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_exclusion_profiles_default ON exclusion_profiles (project_id) WHERE is_default;

CREATE OR REPLACE FUNCTION notify_job_progress() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('job_progress', NEW.id::text);
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'scan_jobs_progress_notify') THEN
    CREATE TRIGGER scan_jobs_progress_notify
    AFTER INSERT OR UPDATE ON scan_jobs
    FOR EACH ROW EXECUTE FUNCTION notify_job_progress();
  END IF;
END$$;
`)
	return err
}
