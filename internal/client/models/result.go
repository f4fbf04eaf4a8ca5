package models

import "github.com/dmitrijs2005/draped/internal/timex"

// Result is a stored try-on output shown in the gallery.
type Result struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	ImageURL     string          `json:"image_url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	IsFavorite   bool            `json:"is_favorite"`
	CreatedAt    timex.Timestamp `json:"created_at"`
}

type ResultPage struct {
	Results []Result `json:"results"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	Total   int      `json:"total"`
}
