package models

import "time"

// Download records one dataset file fetched from the open-data API.
type Download struct {
	ID           int64     `json:"id"`
	ResourceID   string    `json:"resource_id"`
	OutputFolder string    `json:"output_folder"`
	FilePath     string    `json:"file_path"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	RequestID    string    `json:"request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
