package scripts

import (
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("correction script not found")
	ErrSubscriptionRequired = errors.New("an active subscription is required")
	ErrCompliantScan        = errors.New("scan has no issues to correct")
)

// Source tells which generator produced a script.
type Source string

const (
	SourceAI       Source = "openai"
	SourceTemplate Source = "template"
	SourceCache    Source = "cache"
)

// ScriptID identifier type
type ScriptID string

// Script is a generated correction script, stored for auditing and retrieval
type Script struct {
	ID          ScriptID  `json:"id"`
	UserID      string    `json:"user_id"`
	ScanID      string    `json:"scan_id"`
	URL         string    `json:"url"`
	Content     string    `json:"script"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}
