package scans

import (
	"errors"
	"time"

	"github.com/Seedgta1/N8/internal/domain/compliance"
)

// ID tipe untuk Scan
type ScanID string

var (
	ErrNotFound   = errors.New("scan not found")
	ErrInvalidURL = errors.New("invalid url")
	ErrSelfScan   = errors.New("scanning this application is not allowed")
)

// Aggregate Root: Scan
type Scan struct {
	ID             ScanID                   `json:"id"`
	URL            string                   `json:"url"`
	IsCompliant    bool                     `json:"is_compliant"`
	IssuesCount    int                      `json:"issues_count"`
	Suggestions    []compliance.IssueRecord `json:"suggestions"`
	ScanDate       time.Time                `json:"scan_date"`
	ScanDateLocale string                   `json:"scan_date_locale"`
	UserID         string                   `json:"user_id,omitempty"`
	ReportURL      string                   `json:"report_url,omitempty"`
}

// PotentialFine is the summed illustrative fine of all suggestions.
func (s *Scan) PotentialFine() int {
	return compliance.TotalFine(s.Suggestions)
}

// OwnedBy reports whether the scan belongs to the given user.
func (s *Scan) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}

// Filter narrows List/Paginate queries. Zero values mean "no filter".
type Filter struct {
	UserID           string
	Query            string // case-insensitive substring of url
	OnlyNonCompliant bool
	Page             int
	PageSize         int
}

// Normalize applies default paging.
func (f Filter) Normalize() Filter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}

// Offset returns the row offset of the page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Summary value object
type Summary struct {
	TotalScans        int `json:"total_scans"`
	Compliant         int `json:"compliant"`
	NonCompliant      int `json:"non_compliant"`
	IssuesTotal       int `json:"issues_total"`
	PotentialFinesEUR int `json:"potential_fines_eur"`
}
