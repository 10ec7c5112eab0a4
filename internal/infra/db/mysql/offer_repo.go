package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/Seedgta1/N8/internal/domain/outreach"
)

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Save inserts an offer attempt and sets its id
func (r *OfferRepository) Save(ctx context.Context, o *domain.Offer) error {
	const q = `
INSERT INTO offer_emails (scan_id, user_id, recipient, subject, status, error, created_at)
VALUES (?,?,?,?,?,?,?);
`
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q,
		o.ScanID, nullIfEmpty(o.UserID), o.Recipient, o.Subject, o.Status, o.Error, createdAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

// ListByScan returns attempts for a scan, newest first
func (r *OfferRepository) ListByScan(ctx context.Context, scanID string, limit int) ([]*domain.Offer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
SELECT id, scan_id, user_id, recipient, subject, status, error, created_at
FROM offer_emails
WHERE scan_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, scanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Offer
	for rows.Next() {
		var (
			o      domain.Offer
			userID sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.ScanID, &userID, &o.Recipient, &o.Subject, &o.Status, &o.Error, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.UserID = userID.String
		out = append(out, &o)
	}
	return out, rows.Err()
}
