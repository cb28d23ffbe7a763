package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// -----------------------------------------------------------------------------
// Scan Page Methods
// -----------------------------------------------------------------------------

// CreateScanPages bulk-inserts pending page rows for a job. Duplicate
// URLs within the job are ignored, so registering the page set is
// idempotent across requeued runs.
func (db *DB) CreateScanPages(ctx context.Context, jobID uuid.UUID, urls []string, source types.PageSource) error {
	for start := 0; start < len(urls); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[start:end]

		const colCount = 3
		var sb strings.Builder
		sb.WriteString(`INSERT INTO scan_pages (job_id, url, source) VALUES `)
		args := make([]any, 0, len(chunk)*colCount)
		for i, u := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i*colCount + 1
			sb.WriteString(fmt.Sprintf("($%d::uuid, $%d, $%d)", base, base+1, base+2))
			args = append(args, jobID, u, source)
		}
		sb.WriteString(` ON CONFLICT (job_id, url) DO NOTHING`)

		if _, err := db.pool.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to create scan pages: %w", err)
		}
	}
	return nil
}

// UpsertScanPage records the scrape outcome for one page and returns the
// page row ID
func (db *DB) UpsertScanPage(ctx context.Context, page *ScanPage) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO scan_pages (job_id, url, title, source, status, content_hash, word_count, error, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (job_id, url) DO UPDATE
		 SET title = EXCLUDED.title, status = EXCLUDED.status,
		     content_hash = EXCLUDED.content_hash, word_count = EXCLUDED.word_count,
		     error = EXCLUDED.error, scraped_at = EXCLUDED.scraped_at
		 RETURNING id`,
		page.JobID, page.URL, page.Title, page.Source, page.Status,
		page.ContentHash, page.WordCount, page.Error, page.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert scan page: %w", err)
	}
	return id, nil
}

// ListScanPages retrieves all pages for a job in insertion order
func (db *DB) ListScanPages(ctx context.Context, jobID uuid.UUID) ([]ScanPage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, url, title, source, status, content_hash, word_count, error, scraped_at, created_at
		 FROM scan_pages
		 WHERE job_id = $1
		 ORDER BY id`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan pages: %w", err)
	}
	defer rows.Close()

	var pages []ScanPage
	for rows.Next() {
		var p ScanPage
		if err := rows.Scan(&p.ID, &p.JobID, &p.URL, &p.Title, &p.Source, &p.Status,
			&p.ContentHash, &p.WordCount, &p.Error, &p.ScrapedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// ReplacePageChunks deletes a page's chunks and inserts the new set
func (db *DB) ReplacePageChunks(ctx context.Context, pageID int64, chunks []PageChunk) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin chunk replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM page_chunks WHERE page_id = $1`, pageID); err != nil {
		return fmt.Errorf("failed to delete page chunks: %w", err)
	}

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		const colCount = 5
		var sb strings.Builder
		sb.WriteString(`INSERT INTO page_chunks (page_id, chunk_index, heading_path, content, token_estimate) VALUES `)
		args := make([]any, 0, len(batch)*colCount)
		for i, c := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i*colCount + 1
			sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base, base+1, base+2, base+3, base+4))
			args = append(args, pageID, c.ChunkIndex, c.HeadingPath, c.Content, c.TokenEstimate)
		}

		if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("failed to insert page chunks: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListPageChunks retrieves a page's chunks in order
func (db *DB) ListPageChunks(ctx context.Context, pageID int64) ([]PageChunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, page_id, chunk_index, heading_path, content, token_estimate
		 FROM page_chunks
		 WHERE page_id = $1
		 ORDER BY chunk_index`,
		pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page chunks: %w", err)
	}
	defer rows.Close()

	var chunks []PageChunk
	for rows.Next() {
		var c PageChunk
		if err := rows.Scan(&c.ID, &c.PageID, &c.ChunkIndex, &c.HeadingPath, &c.Content, &c.TokenEstimate); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
