package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"datagovchat/internal/models"
)

// ErrNotFound is returned when no download was recorded for a resource.
var ErrNotFound = errors.New("dataset not found")

// Service records and lists downloaded datasets.
type Service struct {
	db *sql.DB
}

// NewService builds a catalog backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record persists a completed download and fills in its ID and timestamp.
func (s *Service) Record(ctx context.Context, d *models.Download) error {
	if d == nil {
		return errors.New("download cannot be nil")
	}
	if strings.TrimSpace(d.ResourceID) == "" {
		return errors.New("resource_id is required")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (resource_id, output_folder, file_path, size_bytes, content_type, request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ResourceID, d.OutputFolder, d.FilePath, d.SizeBytes, d.ContentType, d.RequestID, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("download id: %w", err)
	}
	d.ID = id
	return nil
}

// List returns all recorded downloads, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Download, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource_id, output_folder, file_path, size_bytes, content_type, request_id, created_at
		 FROM downloads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var out []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}
	return out, nil
}

// Latest returns the most recent download of resourceID.
func (s *Service) Latest(ctx context.Context, resourceID string) (*models.Download, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, resource_id, output_folder, file_path, size_bytes, content_type, request_id, created_at
		 FROM downloads WHERE resource_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, resourceID)
	d, err := scanDownload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(sc scanner) (*models.Download, error) {
	var d models.Download
	if err := sc.Scan(&d.ID, &d.ResourceID, &d.OutputFolder, &d.FilePath, &d.SizeBytes, &d.ContentType, &d.RequestID, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan download: %w", err)
	}
	return &d, nil
}
