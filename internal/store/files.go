package store

import (
	"context"
	"fmt"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
)

// CreateFile records an uploaded file and returns it with its new id.
func (s *Store) CreateFile(ctx context.Context, f fields.File) (fields.File, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (name, url, size, mime_type) VALUES (?, ?, ?, ?)`,
		f.Name, f.URL, f.Size, f.MimeType,
	)
	if err != nil {
		return fields.File{}, fmt.Errorf("store: insert file: %w", err)
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return fields.File{}, fmt.Errorf("store: insert file id: %w", err)
	}
	return f, nil
}

// GetFiles returns the known files among ids, keyed by id. Unknown ids are
// absent from the map.
func (s *Store) GetFiles(ctx context.Context, ids []int64) (map[int64]fields.File, error) {
	out := make(map[int64]fields.File, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, size, mime_type FROM files WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: get files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f fields.File
		if err := rows.Scan(&f.ID, &f.Name, &f.URL, &f.Size, &f.MimeType); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		out[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: get files: %w", err)
	}
	return out, nil
}
