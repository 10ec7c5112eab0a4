package outreach

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/application"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	domain "github.com/Seedgta1/N8/internal/domain/outreach"
	"github.com/Seedgta1/N8/internal/domain/scans"
)

// ErrDeliveryFailed wraps mailer errors; the attempt is still recorded.
var ErrDeliveryFailed = errors.New("offer email delivery failed")

var recipientRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Observer receives delivery outcomes, used for metrics.
type Observer interface {
	ObserveOffer(status string)
}

// Service previews and sends offer emails for scans
type Service struct {
	Scans    scans.Repository
	Repo     domain.Repository
	Mailer   domain.Mailer // nil means sending is simulated
	Clock    application.Clock
	Log      *zap.Logger
	Observer Observer
}

func (s *Service) load(ctx context.Context, p accounts.Principal, id scans.ScanID) (*scans.Scan, error) {
	if p.UserID == "" {
		return nil, accounts.ErrUnauthorized
	}
	scan, err := s.Scans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scan.UserID != "" && !p.CanAccess(scan.UserID) {
		return nil, accounts.ErrForbidden
	}
	return scan, nil
}

// Preview renders the offer email without sending it.
func (s *Service) Preview(ctx context.Context, p accounts.Principal, id scans.ScanID) (domain.Email, error) {
	scan, err := s.load(ctx, p, id)
	if err != nil {
		return domain.Email{}, err
	}
	return Compose(scan)
}

// Send validates the recipient, delivers the offer and records the attempt.
func (s *Service) Send(ctx context.Context, p accounts.Principal, id scans.ScanID, recipient string) (*domain.Offer, error) {
	recipient = strings.TrimSpace(recipient)
	if !recipientRe.MatchString(recipient) {
		return nil, domain.ErrInvalidRecipient
	}
	scan, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	email, err := Compose(scan)
	if err != nil {
		return nil, err
	}
	email.To = recipient

	offer := &domain.Offer{
		ScanID:    string(scan.ID),
		UserID:    string(p.UserID),
		Recipient: recipient,
		Subject:   email.Subject,
		Status:    domain.StatusSimulated,
		CreatedAt: s.Clock.Now().UTC(),
	}
	log := s.Log.With(zap.String("scan_id", offer.ScanID), zap.String("recipient", recipient))

	var sendErr error
	if s.Mailer != nil {
		if sendErr = s.Mailer.Send(ctx, email); sendErr != nil {
			offer.Status = domain.StatusFailed
			offer.Error = sendErr.Error()
			log.Error("offer email failed", zap.Error(sendErr))
		} else {
			offer.Status = domain.StatusSent
		}
	} else {
		log.Info("offer email simulated", zap.String("subject", email.Subject))
	}

	if err := s.Repo.Save(ctx, offer); err != nil {
		return nil, fmt.Errorf("record offer: %w", err)
	}
	if s.Observer != nil {
		s.Observer.ObserveOffer(string(offer.Status))
	}
	if sendErr != nil {
		return offer, fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
	}
	return offer, nil
}

// History lists the recorded attempts for a scan.
func (s *Service) History(ctx context.Context, p accounts.Principal, id scans.ScanID, limit int) ([]*domain.Offer, error) {
	if _, err := s.load(ctx, p, id); err != nil {
		return nil, err
	}
	return s.Repo.ListByScan(ctx, string(id), limit)
}
