package db

import "time"

// Project represents a registered site whose pages get validated.
// Scan jobs and guideline sets hang off a project; the base URL is the
// identity used for regression baselines.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
