package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Seedgta1/N8/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

const scanColumns = `id, url, is_compliant, issues_count, suggestions, scan_date, scan_date_locale, user_id, report_url`

// Save insert/update Scan record
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans
(id, url, is_compliant, issues_count, suggestions, potential_fine_eur,
 scan_date, scan_date_locale, user_id, report_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 report_url = EXCLUDED.report_url;`

	suggestions, err := json.Marshal(s.Suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	scanDate := s.ScanDate
	if scanDate.IsZero() {
		scanDate = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		s.ID, s.URL, s.IsCompliant, s.IssuesCount, string(suggestions), s.PotentialFine(),
		scanDate, s.ScanDateLocale, nullIfEmpty(s.UserID), s.ReportURL,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	var (
		s           domain.Scan
		suggestions []byte
		userID      sql.NullString
	)
	if err := row.Scan(
		&s.ID, &s.URL, &s.IsCompliant, &s.IssuesCount, &suggestions,
		&s.ScanDate, &s.ScanDateLocale, &userID, &s.ReportURL,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(suggestions, &s.Suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions of %s: %w", s.ID, err)
	}
	s.UserID = userID.String
	return &s, nil
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM scans WHERE id=$1 LIMIT 1;`
	s, err := scanRow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func whereClause(f domain.Filter, p *placeholders) string {
	var conds []string
	if f.UserID != "" {
		conds = append(conds, "user_id = "+p.add(f.UserID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, "url ILIKE "+p.add("%"+escapeLikePattern(q)+"%"))
	}
	if f.OnlyNonCompliant {
		conds = append(conds, "NOT is_compliant")
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// Paginate with offset + limit (classic pagination), newest first
func (r *ScanRepository) Paginate(ctx context.Context, f domain.Filter) (domain.PaginatedResult, error) {
	f = f.Normalize()

	var p placeholders
	where := whereClause(f, &p)
	countArgs := append([]any(nil), p.args...)

	query := `SELECT ` + scanColumns + ` FROM scans` + where +
		fmt.Sprintf("\n ORDER BY scan_date DESC, id DESC LIMIT %s OFFSET %s", p.add(f.PageSize), p.add(f.Offset()))

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scans"+where, countArgs...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}
	return domain.NewPaginatedResult(out, f, total), nil
}

func (r *ScanRepository) Delete(ctx context.Context, id domain.ScanID) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM scans WHERE id=$1;`, id))
}

func (r *ScanRepository) DeleteOwned(ctx context.Context, userID string, id domain.ScanID) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM scans WHERE id=$1 AND user_id=$2;`, id, userID))
}

func (r *ScanRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scans;`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Summary counts scan results since a point in time
func (r *ScanRepository) Summary(ctx context.Context, since time.Time) (domain.Summary, error) {
	const q = `
SELECT COUNT(*) AS total_scans,
       COUNT(*) FILTER (WHERE is_compliant) AS compliant,
       COALESCE(SUM(issues_count),0)        AS issues_total,
       COALESCE(SUM(potential_fine_eur),0)  AS potential_fines
FROM scans
WHERE scan_date >= $1;`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, since).Scan(
		&s.TotalScans, &s.Compliant, &s.IssuesTotal, &s.PotentialFinesEUR,
	); err != nil {
		return domain.Summary{}, err
	}
	s.NonCompliant = s.TotalScans - s.Compliant
	return s, nil
}
