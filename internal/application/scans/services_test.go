package scans

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/application"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	domain "github.com/Seedgta1/N8/internal/domain/scans"
)

type fakeRepo struct {
	mu      sync.Mutex
	scans   map[domain.ScanID]*domain.Scan
	saveErr error
	since   time.Time
	deleted []string
}

func newFakeRepo() *fakeRepo { return &fakeRepo{scans: map[domain.ScanID]*domain.Scan{}} }

func (r *fakeRepo) Save(_ context.Context, s *domain.Scan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.scans[s.ID] = s
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id domain.ScanID) (*domain.Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) Paginate(_ context.Context, f domain.Filter) (domain.PaginatedResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Scan
	for _, s := range r.scans {
		if f.UserID == "" || s.UserID == f.UserID {
			out = append(out, s)
		}
	}
	return domain.NewPaginatedResult(out, f, int64(len(out))), nil
}

func (r *fakeRepo) Delete(_ context.Context, id domain.ScanID) error {
	r.deleted = append(r.deleted, "any:"+string(id))
	return nil
}

func (r *fakeRepo) DeleteOwned(_ context.Context, userID string, id domain.ScanID) error {
	r.deleted = append(r.deleted, userID+":"+string(id))
	return nil
}

func (r *fakeRepo) DeleteAll(context.Context) (int64, error) {
	n := int64(len(r.scans))
	r.scans = map[domain.ScanID]*domain.Scan{}
	return n, nil
}

func (r *fakeRepo) Summary(_ context.Context, since time.Time) (domain.Summary, error) {
	r.since = since
	return domain.Summary{TotalScans: len(r.scans)}, nil
}

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "http://minio/bucket/" + key, nil
}

type countingObserver struct{ compliant, nonCompliant int }

func (o *countingObserver) ObserveScan(compliant bool, _ int) {
	if compliant {
		o.compliant++
	} else {
		o.nonCompliant++
	}
}

var now = time.Date(2026, time.October, 19, 10, 58, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *fakeRepo, *fakeStore) {
	t.Helper()
	catalog, err := compliance.DefaultCatalog()
	require.NoError(t, err)
	gen, err := compliance.NewGenerator(catalog, compliance.ThresholdStandard)
	require.NoError(t, err)
	repo, store := newFakeRepo(), &fakeStore{}
	return &Service{
		Repo:       repo,
		Artifacts:  store,
		Generator:  gen,
		Clock:      application.FixedClock(now),
		Log:        zap.NewNop(),
		PublicHost: "gdpr.example.it",
	}, repo, store
}

func TestScan_NonCompliant(t *testing.T) {
	svc, repo, store := newService(t)
	obs := &countingObserver{}
	svc.Observer = obs

	res, err := svc.Scan(context.Background(), SubmitCommand{URL: "example.com/", UserID: "u1"})
	require.NoError(t, err)

	assert.True(t, res.Saved)
	assert.Equal(t, "https://example.com", res.URL)
	assert.False(t, res.IsCompliant)
	assert.Equal(t, 4, res.IssuesCount)
	assert.Len(t, res.Suggestions, 4)
	assert.Equal(t, "data_retention_policy", res.Suggestions[0].ID)
	assert.Equal(t, 28000, res.PotentialFineEUR)
	assert.Equal(t, now, res.ScanDate)
	assert.Equal(t, "lunedì 19 ottobre 2026 alle ore 10:58", res.ScanDateLocale)
	assert.Equal(t, "u1", res.UserID)

	require.Len(t, store.keys, 1)
	assert.Equal(t, "reports/"+string(res.ID)+".json", store.keys[0])
	assert.Equal(t, "http://minio/bucket/"+store.keys[0], res.ReportURL)

	stored, err := repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Scan, stored)
	assert.Equal(t, 1, obs.nonCompliant)
}

func TestScan_Deterministic(t *testing.T) {
	svc, _, _ := newService(t)
	a, err := svc.Scan(context.Background(), SubmitCommand{URL: "https://www.esempio.it"})
	require.NoError(t, err)
	b, err := svc.Scan(context.Background(), SubmitCommand{URL: "https://www.esempio.it/"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Suggestions, b.Suggestions)
}

func TestScan_SaveFailureStillReturnsResult(t *testing.T) {
	svc, repo, _ := newService(t)
	repo.saveErr = errors.New("db down")
	res, err := svc.Scan(context.Background(), SubmitCommand{URL: "https://example.com"})
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Equal(t, 4, res.IssuesCount)
}

func TestScan_UploadFailureIsTolerated(t *testing.T) {
	svc, _, store := newService(t)
	store.err = errors.New("bucket missing")
	res, err := svc.Scan(context.Background(), SubmitCommand{URL: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Empty(t, res.ReportURL)
}

func TestScan_Rejections(t *testing.T) {
	svc, repo, _ := newService(t)
	_, err := svc.Scan(context.Background(), SubmitCommand{URL: "https://gdpr.example.it/privacy"})
	assert.ErrorIs(t, err, domain.ErrSelfScan)

	_, err = svc.Scan(context.Background(), SubmitCommand{URL: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.Empty(t, repo.scans)
}

func TestGet_Ownership(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	owned, err := svc.Scan(ctx, SubmitCommand{URL: "https://example.com", UserID: "u1"})
	require.NoError(t, err)
	anon, err := svc.Scan(ctx, SubmitCommand{URL: "http://test.com"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, accounts.Principal{UserID: "u1"}, owned.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, accounts.Principal{UserID: "u2"}, owned.ID)
	assert.ErrorIs(t, err, accounts.ErrForbidden)
	_, err = svc.Get(ctx, accounts.Principal{Admin: true, UserID: "admin"}, owned.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, accounts.Principal{}, anon.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, accounts.Principal{}, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Scan(ctx, SubmitCommand{URL: "https://example.com", UserID: "u1"})
	require.NoError(t, err)
	_, err = svc.Scan(ctx, SubmitCommand{URL: "http://test.com", UserID: "u2"})
	require.NoError(t, err)

	mine, err := svc.ListOwned(ctx, accounts.Principal{UserID: "u1"}, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, mine.Data, 1)

	_, err = svc.ListOwned(ctx, accounts.Principal{}, domain.Filter{})
	assert.ErrorIs(t, err, accounts.ErrUnauthorized)

	_, err = svc.List(ctx, accounts.Principal{UserID: "u1"}, domain.Filter{})
	assert.ErrorIs(t, err, accounts.ErrForbidden)
	all, err := svc.List(ctx, accounts.Principal{UserID: "a", Admin: true}, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)

	require.NoError(t, svc.Delete(ctx, accounts.Principal{UserID: "u1"}, "s1"))
	require.NoError(t, svc.Delete(ctx, accounts.Principal{UserID: "a", Admin: true}, "s2"))
	assert.ErrorIs(t, svc.Delete(ctx, accounts.Principal{}, "s3"), accounts.ErrUnauthorized)
	assert.Equal(t, []string{"u1:s1", "any:s2"}, repo.deleted)

	_, err = svc.DeleteAll(ctx, accounts.Principal{UserID: "u1"})
	assert.ErrorIs(t, err, accounts.ErrForbidden)
	n, err := svc.DeleteAll(ctx, accounts.Principal{UserID: "a", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSummary(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Summary(ctx, accounts.Principal{UserID: "u1"}, 7)
	assert.ErrorIs(t, err, accounts.ErrForbidden)

	_, err = svc.Summary(ctx, accounts.Principal{Admin: true}, 7)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), repo.since)
}
