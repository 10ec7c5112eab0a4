package outreach

import "context"

// Repository defines persistence for offer emails
type Repository interface {
	Save(ctx context.Context, o *Offer) error
	ListByScan(ctx context.Context, scanID string, limit int) ([]*Offer, error)
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}
