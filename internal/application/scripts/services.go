package scripts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/application"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/ai"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/domain/scans"
	domain "github.com/Seedgta1/N8/internal/domain/scripts"
)

// Observer receives generation outcomes, used for metrics.
type Observer interface {
	ObserveScript(source string)
}

// Service generates correction scripts for non-compliant scans
type Service struct {
	Scans     scans.Repository
	Profiles  accounts.ProfileRepository
	Repo      domain.Repository
	Cache     domain.Cache       // optional
	AI        ai.ScriptGenerator // optional
	Fallback  ai.ScriptGenerator
	Artifacts scans.ArtifactStore // optional
	Clock     application.Clock
	Log       *zap.Logger
	Observer  Observer // optional
	CacheTTL  time.Duration
}

// Generate returns a correction script for the scan. The caller must own the scan
// (admins may use any) and hold an active subscription.
func (s *Service) Generate(ctx context.Context, p accounts.Principal, scanID scans.ScanID) (*domain.Script, error) {
	if p.UserID == "" {
		return nil, accounts.ErrUnauthorized
	}
	scan, err := s.Scans.Get(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if scan.UserID != "" && !p.CanAccess(scan.UserID) {
		return nil, accounts.ErrForbidden
	}
	if !p.Admin {
		if err := s.requireSubscription(ctx, p.UserID); err != nil {
			return nil, err
		}
	}
	if scan.IsCompliant || len(scan.Suggestions) == 0 {
		return nil, domain.ErrCompliantScan
	}

	log := s.Log.With(zap.String("scan_id", string(scan.ID)), zap.String("user_id", string(p.UserID)))
	key := CacheKey(scan.URL, scan.Suggestions)
	content, source := s.cached(ctx, log, key)
	if content == "" {
		content, source, err = s.generate(ctx, log, ai.ScriptRequest{SiteURL: scan.URL, Issues: scan.Suggestions})
		if err != nil {
			return nil, err
		}
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, key, content, s.CacheTTL); err != nil {
				log.Warn("script cache write failed", zap.Error(err))
			}
		}
	}

	script := &domain.Script{
		ID:        domain.ScriptID(uuid.New().String()),
		UserID:    string(p.UserID),
		ScanID:    string(scan.ID),
		URL:       scan.URL,
		Content:   content,
		Source:    source,
		CreatedAt: s.Clock.Now().UTC(),
	}
	if s.Artifacts != nil {
		url, err := s.Artifacts.Put(ctx, ArtifactKey(script), "text/javascript; charset=utf-8", []byte(content))
		if err != nil {
			log.Warn("script upload failed", zap.Error(err))
		} else {
			script.ArtifactURL = url
		}
	}
	if err := s.Repo.Save(ctx, script); err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}
	if s.Observer != nil {
		s.Observer.ObserveScript(string(source))
	}
	log.Info("correction script generated", zap.String("source", string(source)))
	return script, nil
}

func (s *Service) requireSubscription(ctx context.Context, id accounts.UserID) error {
	prof, err := s.Profiles.Get(ctx, id)
	if errors.Is(err, accounts.ErrNotFound) {
		return domain.ErrSubscriptionRequired
	}
	if err != nil {
		return err
	}
	if !prof.IsSubscribed {
		return domain.ErrSubscriptionRequired
	}
	return nil
}

func (s *Service) cached(ctx context.Context, log *zap.Logger, key string) (string, domain.Source) {
	if s.Cache == nil {
		return "", ""
	}
	v, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("script cache read failed", zap.Error(err))
		return "", ""
	}
	if !ok {
		return "", ""
	}
	return v, domain.SourceCache
}

// generate tries the AI provider first and falls back to the template on any provider error.
func (s *Service) generate(ctx context.Context, log *zap.Logger, req ai.ScriptRequest) (string, domain.Source, error) {
	if s.AI != nil {
		out, err := s.AI.GenerateScript(ctx, req)
		if err == nil {
			return out, domain.SourceAI, nil
		}
		log.Warn("ai script generation failed, using template", zap.Error(err))
	}
	out, err := s.Fallback.GenerateScript(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("template script: %w", err)
	}
	return out, domain.SourceTemplate, nil
}

// Eligible lists the caller's non-compliant scans. Admins need no subscription.
func (s *Service) Eligible(ctx context.Context, p accounts.Principal) ([]*scans.Scan, error) {
	if p.UserID == "" {
		return nil, accounts.ErrUnauthorized
	}
	if !p.Admin {
		if err := s.requireSubscription(ctx, p.UserID); err != nil {
			return nil, err
		}
	}
	page, err := s.Scans.Paginate(ctx, scans.Filter{
		UserID:           string(p.UserID),
		OnlyNonCompliant: true,
		PageSize:         100,
	}.Normalize())
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// History returns the scripts the caller generated, newest first.
func (s *Service) History(ctx context.Context, p accounts.Principal, limit int) ([]*domain.Script, error) {
	if p.UserID == "" {
		return nil, accounts.ErrUnauthorized
	}
	return s.Repo.ListByUser(ctx, string(p.UserID), limit)
}

// CacheKey identifies a script by site and ordered issue ids.
func CacheKey(url string, issues []compliance.IssueRecord) string {
	h := sha256.New()
	h.Write([]byte(url))
	for _, is := range issues {
		h.Write([]byte{0})
		h.Write([]byte(is.ID))
	}
	return "gdpr:script:" + hex.EncodeToString(h.Sum(nil))
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]`)

// ArtifactKey is the object key of a stored script, e.g.
// scripts/<scan id>/gdpr_correction_script_https___example_com.js
func ArtifactKey(s *domain.Script) string {
	safe := unsafeChars.ReplaceAllString(strings.ToLower(s.URL), "_")
	return fmt.Sprintf("scripts/%s/gdpr_correction_script_%s.js", s.ScanID, safe)
}
