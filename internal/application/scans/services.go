package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/application"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	domain "github.com/Seedgta1/N8/internal/domain/scans"
)

// Observer receives scan outcomes, used for metrics.
type Observer interface {
	ObserveScan(compliant bool, issues int)
}

// Service implements use-cases untuk Scan
// Service is safe for concurrent use
type Service struct {
	Repo       domain.Repository
	Artifacts  domain.ArtifactStore // optional
	Generator  *compliance.Generator
	Clock      application.Clock
	Log        *zap.Logger
	Observer   Observer // optional
	PublicHost string
	Location   *time.Location
}

//
// ==== USE CASES ====
//

// Command untuk submit scan
type SubmitCommand struct {
	URL    string
	UserID string
}

// Result is a scan plus whether it reached the database.
type Result struct {
	*domain.Scan
	PotentialFineEUR int  `json:"potential_fine_eur"`
	Saved            bool `json:"saved"`
}

// Scan normalizes the URL, evaluates it and persists the outcome.
// A failed save is logged and reported through Result.Saved; the scan is still returned.
func (s *Service) Scan(ctx context.Context, cmd SubmitCommand) (Result, error) {
	target, err := domain.NormalizeURL(cmd.URL)
	if err != nil {
		return Result{}, err
	}
	if domain.IsSelfScan(target, s.PublicHost) {
		return Result{}, domain.ErrSelfScan
	}

	verdict := s.Generator.Evaluate(target)
	now := s.Clock.Now().UTC()
	scan := &domain.Scan{
		ID:             domain.ScanID(uuid.New().String()),
		URL:            target,
		IsCompliant:    verdict.Compliant,
		IssuesCount:    len(verdict.Issues),
		Suggestions:    verdict.Issues,
		ScanDate:       now,
		ScanDateLocale: domain.FormatItalianDate(now, s.Location),
		UserID:         cmd.UserID,
	}
	log := s.Log.With(zap.String("scan_id", string(scan.ID)), zap.String("url", target))

	if s.Artifacts != nil {
		if url, err := s.uploadReport(ctx, scan); err != nil {
			log.Warn("report upload failed", zap.Error(err))
		} else {
			scan.ReportURL = url
		}
	}

	res := Result{Scan: scan, PotentialFineEUR: scan.PotentialFine(), Saved: true}
	if err := s.Repo.Save(ctx, scan); err != nil {
		log.Error("scan not saved", zap.Error(err))
		res.Saved = false
	}
	if s.Observer != nil {
		s.Observer.ObserveScan(scan.IsCompliant, scan.IssuesCount)
	}
	log.Info("scan evaluated",
		zap.Bool("compliant", scan.IsCompliant),
		zap.Int("issues", scan.IssuesCount),
		zap.Bool("saved", res.Saved),
	)
	return res, nil
}

func (s *Service) uploadReport(ctx context.Context, scan *domain.Scan) (string, error) {
	body, err := json.MarshalIndent(scan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	key := fmt.Sprintf("reports/%s.json", scan.ID)
	return s.Artifacts.Put(ctx, key, "application/json", body)
}

// Get ambil 1 scan by id. Scans without an owner are readable by anyone holding the id.
func (s *Service) Get(ctx context.Context, p accounts.Principal, id domain.ScanID) (*domain.Scan, error) {
	scan, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scan.UserID != "" && !p.CanAccess(scan.UserID) {
		return nil, accounts.ErrForbidden
	}
	return scan, nil
}

// ListOwned returns the caller's scans, newest first.
func (s *Service) ListOwned(ctx context.Context, p accounts.Principal, f domain.Filter) (domain.PaginatedResult, error) {
	if p.UserID == "" {
		return domain.PaginatedResult{}, accounts.ErrUnauthorized
	}
	f.UserID = string(p.UserID)
	return s.Repo.Paginate(ctx, f.Normalize())
}

// List returns every scan matching the filter (admin dashboard).
func (s *Service) List(ctx context.Context, p accounts.Principal, f domain.Filter) (domain.PaginatedResult, error) {
	if !p.Admin {
		return domain.PaginatedResult{}, accounts.ErrForbidden
	}
	return s.Repo.Paginate(ctx, f.Normalize())
}

// Delete removes a scan. Admins may delete any scan, users only their own.
func (s *Service) Delete(ctx context.Context, p accounts.Principal, id domain.ScanID) error {
	switch {
	case p.Admin:
		return s.Repo.Delete(ctx, id)
	case p.UserID != "":
		return s.Repo.DeleteOwned(ctx, string(p.UserID), id)
	default:
		return accounts.ErrUnauthorized
	}
}

// DeleteAll hapus semua scan (admin)
func (s *Service) DeleteAll(ctx context.Context, p accounts.Principal) (int64, error) {
	if !p.Admin {
		return 0, accounts.ErrForbidden
	}
	n, err := s.Repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.Log.Warn("all scans deleted", zap.String("by", p.Email), zap.Int64("count", n))
	return n, nil
}

// Summary rekap hasil scan N hari terakhir
func (s *Service) Summary(ctx context.Context, p accounts.Principal, sinceDays int) (domain.Summary, error) {
	if !p.Admin {
		return domain.Summary{}, accounts.ErrForbidden
	}
	if sinceDays <= 0 {
		return domain.Summary{}, errors.New("sinceDays must be positive")
	}
	since := s.Clock.Now().UTC().AddDate(0, 0, -sinceDays)
	return s.Repo.Summary(ctx, since)
}
