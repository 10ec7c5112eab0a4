package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/Seedgta1/N8/internal/application/billing"
)

var (
	ErrInvalidSecretKey = errors.New("stripe secret key must start with sk_")
	ErrInvalidPriceID   = errors.New("stripe price id must start with price_")
)

// Config Stripe checkout
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
	// Backend overrides the API backend; nil uses the default.
	Backend stripe.Backend
}

// Gateway implements billing.Gateway on Stripe Checkout.
type Gateway struct {
	sessions      *session.Client
	webhookSecret string
	priceID       string
	successURL    string
	cancelURL     string
}

func NewGateway(cfg Config) (*Gateway, error) {
	if !strings.HasPrefix(cfg.SecretKey, "sk_") {
		return nil, ErrInvalidSecretKey
	}
	if !strings.HasPrefix(cfg.PriceID, "price_") {
		return nil, ErrInvalidPriceID
	}
	b := cfg.Backend
	if b == nil {
		b = stripe.GetBackend(stripe.APIBackend)
	}
	return &Gateway{
		sessions:      &session.Client{B: b, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		priceID:       cfg.PriceID,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}, nil
}

// CreateCheckout buat checkout session mode subscription
func (g *Gateway) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(g.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// ParseEvent verifies the signature header and extracts the checkout outcome.
func (g *Gateway) ParseEvent(payload []byte, signature string) (billing.Event, error) {
	if g.webhookSecret == "" {
		return billing.Event{}, billing.ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return billing.Event{}, errors.Join(billing.ErrInvalidSignature, err)
	}

	out := billing.Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != billing.EventCheckoutCompleted || ev.Data == nil {
		return out, nil
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return billing.Event{}, fmt.Errorf("decode checkout session: %w", err)
	}
	out.UserID = cs.ClientReferenceID
	if out.UserID == "" {
		out.UserID = cs.Metadata["user_id"]
	}
	if cs.Customer != nil {
		out.CustomerID = cs.Customer.ID
	}
	return out, nil
}
