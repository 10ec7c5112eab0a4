package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/domain/outreach"
	"github.com/Seedgta1/N8/internal/domain/scans"
)

var scanCols = []string{"id", "url", "is_compliant", "issues_count", "suggestions", "scan_date", "scan_date_locale", "user_id", "report_url"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestScanRepository_Paginate(t *testing.T) {
	db, mock := newMock(t)
	when := time.Date(2026, 10, 19, 10, 58, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM scans WHERE user_id = $1 AND url ILIKE $2 AND NOT is_compliant
 ORDER BY scan_date DESC, id DESC LIMIT $3 OFFSET $4`)).
		WithArgs("user-1", "%Example%", 20, 0).
		WillReturnRows(sqlmock.NewRows(scanCols).
			AddRow("a", "https://example.com", false, 4, []byte(`[{"id":"consent_checkboxes","fine_amount_eur":20000}]`), when, "", "user-1", ""))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM scans WHERE user_id = $1 AND url ILIKE $2 AND NOT is_compliant`)).
		WithArgs("user-1", "%Example%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	res, err := NewScanRepository(db).Paginate(context.Background(), scans.Filter{
		UserID: "user-1", Query: "Example", OnlyNonCompliant: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, 20000, res.Data[0].PotentialFine())
	assert.Equal(t, 1, res.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_GetAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScanRepository(db)

	mock.ExpectQuery(`FROM scans WHERE id=\$1`).WithArgs("x").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`DELETE FROM scans WHERE id=\$1 AND user_id=\$2`).WithArgs("x", "u").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, scans.ErrNotFound)
	assert.NoError(t, repo.DeleteOwned(context.Background(), "u", "x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepository_Save(t *testing.T) {
	db, mock := newMock(t)
	when := time.Date(2026, 10, 19, 10, 58, 0, 0, time.UTC)
	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("a", "https://a.it", true, 0, "[]", 0, when, "", "user-1", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewScanRepository(db).Save(context.Background(), &scans.Scan{
		ID: "a", URL: "https://a.it", IsCompliant: true, Suggestions: []compliance.IssueRecord{}, ScanDate: when, UserID: "user-1",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := NewUserRepository(db).Create(context.Background(), &accounts.User{ID: "u1", Email: "a@b.it"})
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)
}

func TestProfileRepository_Upsert(t *testing.T) {
	db, mock := newMock(t)
	when := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs("u1", true, nil, when).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewProfileRepository(db).Upsert(context.Background(), &accounts.Profile{
		UserID: "u1", IsSubscribed: true, UpdatedAt: when,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_SaveReturningID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO offer_emails .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	o := &outreach.Offer{ScanID: "a", Recipient: "info@a.it", Status: outreach.StatusSent}
	require.NoError(t, NewOfferRepository(db).Save(context.Background(), o))
	assert.Equal(t, int64(7), o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
