package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Seedgta1/N8/internal/domain/scripts"
)

type ScriptRepository struct{ db *sql.DB }

func NewScriptRepository(db *sql.DB) *ScriptRepository { return &ScriptRepository{db: db} }

const scriptColumns = `id, user_id, scan_id, url, content, artifact_url, source, created_at`

func scanScript(row rowScanner) (*domain.Script, error) {
	var s domain.Script
	if err := row.Scan(&s.ID, &s.UserID, &s.ScanID, &s.URL, &s.Content, &s.ArtifactURL, &s.Source, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScriptRepository) Save(ctx context.Context, s *domain.Script) error {
	const q = `
INSERT INTO correction_scripts (` + scriptColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.UserID, s.ScanID, s.URL, s.Content, s.ArtifactURL, s.Source, createdAt)
	return err
}

// ListByUser returns scripts ordered by created_at desc
func (r *ScriptRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Script, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `SELECT ` + scriptColumns + `
FROM correction_scripts
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Script
	for rows.Next() {
		s, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestByScan returns the latest script for a given scan
func (r *ScriptRepository) LatestByScan(ctx context.Context, scanID string) (*domain.Script, error) {
	const q = `SELECT ` + scriptColumns + `
FROM correction_scripts
WHERE scan_id=$1
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	s, err := scanScript(r.db.QueryRowContext(ctx, q, scanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}
