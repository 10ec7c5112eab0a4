package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Seedgta1/N8/internal/domain/outreach"
	"github.com/Seedgta1/N8/internal/domain/scripts"
)

type ScriptRepository struct {
	mu      sync.RWMutex
	scripts []scripts.Script
}

func NewScriptRepository() *ScriptRepository { return &ScriptRepository{} }

func (r *ScriptRepository) Save(_ context.Context, s *scripts.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, *s)
	return nil
}

// newest returns matching scripts, latest first
func (r *ScriptRepository) newest(keep func(scripts.Script) bool, limit int) []*scripts.Script {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*scripts.Script
	for i := range r.scripts {
		if keep(r.scripts[i]) {
			s := r.scripts[i]
			out = append(out, &s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *ScriptRepository) ListByUser(_ context.Context, userID string, limit int) ([]*scripts.Script, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return r.newest(func(s scripts.Script) bool { return s.UserID == userID }, limit), nil
}

func (r *ScriptRepository) LatestByScan(_ context.Context, scanID string) (*scripts.Script, error) {
	out := r.newest(func(s scripts.Script) bool { return s.ScanID == scanID }, 1)
	if len(out) == 0 {
		return nil, scripts.ErrNotFound
	}
	return out[0], nil
}

type OfferRepository struct {
	mu     sync.RWMutex
	nextID int64
	offers []outreach.Offer
}

func NewOfferRepository() *OfferRepository { return &OfferRepository{} }

func (r *OfferRepository) Save(_ context.Context, o *outreach.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.offers = append(r.offers, *o)
	return nil
}

func (r *OfferRepository) ListByScan(_ context.Context, scanID string, limit int) ([]*outreach.Offer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*outreach.Offer
	for i := len(r.offers) - 1; i >= 0 && len(out) < limit; i-- {
		if r.offers[i].ScanID == scanID {
			o := r.offers[i]
			out = append(out, &o)
		}
	}
	return out, nil
}
