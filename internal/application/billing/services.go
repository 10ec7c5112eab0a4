package billing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/domain/accounts"
)

var (
	ErrNotConfigured     = errors.New("payments are not configured")
	ErrAlreadySubscribed = errors.New("user already has an active subscription")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
)

// EventCheckoutCompleted is the only provider event acted upon.
const EventCheckoutCompleted = "checkout.session.completed"

type CheckoutRequest struct {
	UserID     string
	Email      string
	CustomerID string
}

// Event is a verified provider notification.
type Event struct {
	ID         string
	Type       string
	UserID     string
	CustomerID string
}

// Gateway port untuk payment provider
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (redirectURL string, err error)
	ParseEvent(payload []byte, signature string) (Event, error)
}

// Subscriptions is the slice of the accounts service billing depends on.
type Subscriptions interface {
	Profile(ctx context.Context, id accounts.UserID) (*accounts.Profile, error)
	MarkSubscribed(ctx context.Context, id accounts.UserID, customerID string) error
}

type Service struct {
	Gateway  Gateway // nil when payments are disabled
	Accounts Subscriptions
	Log      *zap.Logger
}

// Checkout starts a subscription checkout and returns the redirect URL.
func (s *Service) Checkout(ctx context.Context, p accounts.Principal) (string, error) {
	if p.UserID == "" {
		return "", accounts.ErrUnauthorized
	}
	if s.Gateway == nil {
		return "", ErrNotConfigured
	}
	prof, err := s.Accounts.Profile(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	if prof.IsSubscribed {
		return "", ErrAlreadySubscribed
	}
	return s.Gateway.CreateCheckout(ctx, CheckoutRequest{
		UserID:     string(p.UserID),
		Email:      p.Email,
		CustomerID: prof.StripeCustomerID,
	})
}

// HandleWebhook verifies a provider event and activates the subscription it refers to.
// Events of other types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Gateway == nil {
		return ErrNotConfigured
	}
	ev, err := s.Gateway.ParseEvent(payload, signature)
	if err != nil {
		s.Log.Warn("webhook rejected", zap.Error(err))
		return ErrInvalidSignature
	}
	log := s.Log.With(zap.String("event_id", ev.ID), zap.String("type", ev.Type))
	if ev.Type != EventCheckoutCompleted {
		log.Debug("webhook ignored")
		return nil
	}
	if ev.UserID == "" {
		log.Warn("checkout without client reference")
		return nil
	}
	return s.Accounts.MarkSubscribed(ctx, accounts.UserID(ev.UserID), ev.CustomerID)
}
