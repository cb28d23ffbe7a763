package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// ScanPage represents one page of a scan job. Status tracks scraping
// only; validation outcomes live in the issues table and the progress
// snapshot.
type ScanPage struct {
	ID          int64              `json:"id"`
	JobID       uuid.UUID          `json:"job_id"`
	URL         string             `json:"url"`
	Title       string             `json:"title,omitempty"`
	Source      types.PageSource   `json:"source"`
	Status      types.ScrapeStatus `json:"status"`
	ContentHash string             `json:"content_hash,omitempty"`
	WordCount   int                `json:"word_count"`
	Error       *string            `json:"error,omitempty"`
	ScrapedAt   *time.Time         `json:"scraped_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PageChunk is a section of a scraped page, split along heading
// boundaries for validation.
type PageChunk struct {
	ID            int64  `json:"id"`
	PageID        int64  `json:"page_id"`
	ChunkIndex    int    `json:"chunk_index"`
	HeadingPath   string `json:"heading_path,omitempty"`
	Content       string `json:"content"`
	TokenEstimate int    `json:"token_estimate"`
}
