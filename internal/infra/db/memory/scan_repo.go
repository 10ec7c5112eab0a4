// Package memory keeps repositories in process memory. Used for local runs
// (database.driver: memory) and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/Seedgta1/N8/internal/domain/scans"
)

type ScanRepository struct {
	mu    sync.RWMutex
	scans map[domain.ScanID]domain.Scan
}

func NewScanRepository() *ScanRepository {
	return &ScanRepository{scans: make(map[domain.ScanID]domain.Scan)}
}

func (r *ScanRepository) Save(_ context.Context, s *domain.Scan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[s.ID] = *s
	return nil
}

func (r *ScanRepository) Get(_ context.Context, id domain.ScanID) (*domain.Scan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func matches(s domain.Scan, f domain.Filter) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" && !strings.Contains(strings.ToLower(s.URL), q) {
		return false
	}
	return !f.OnlyNonCompliant || !s.IsCompliant
}

func (r *ScanRepository) Paginate(_ context.Context, f domain.Filter) (domain.PaginatedResult, error) {
	f = f.Normalize()
	r.mu.RLock()
	var all []domain.Scan
	for _, s := range r.scans {
		if matches(s, f) {
			all = append(all, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].ScanDate.Equal(all[j].ScanDate) {
			return all[i].ScanDate.After(all[j].ScanDate)
		}
		return all[i].ID > all[j].ID
	})

	var page []*domain.Scan
	for i := f.Offset(); i < len(all) && len(page) < f.PageSize; i++ {
		s := all[i]
		page = append(page, &s)
	}
	return domain.NewPaginatedResult(page, f, int64(len(all))), nil
}

func (r *ScanRepository) Delete(_ context.Context, id domain.ScanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.scans, id)
	return nil
}

func (r *ScanRepository) DeleteOwned(_ context.Context, userID string, id domain.ScanID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scans[id]
	if !ok || s.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.scans, id)
	return nil
}

func (r *ScanRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.scans))
	r.scans = make(map[domain.ScanID]domain.Scan)
	return n, nil
}

func (r *ScanRepository) Summary(_ context.Context, since time.Time) (domain.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum domain.Summary
	for _, s := range r.scans {
		if s.ScanDate.Before(since) {
			continue
		}
		sum.TotalScans++
		if s.IsCompliant {
			sum.Compliant++
		}
		sum.IssuesTotal += s.IssuesCount
		sum.PotentialFinesEUR += s.PotentialFine()
	}
	sum.NonCompliant = sum.TotalScans - sum.Compliant
	return sum, nil
}
