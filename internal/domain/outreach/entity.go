package outreach

import (
	"errors"
	"time"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient email")
	ErrCompliantScan    = errors.New("scan is compliant, nothing to offer")
)

// Status of a delivery attempt
type Status string

const (
	StatusSimulated Status = "simulated"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Offer represents a persisted offer email attempt
type Offer struct {
	ID        int64     `json:"id"`
	ScanID    string    `json:"scan_id"`
	UserID    string    `json:"user_id,omitempty"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
