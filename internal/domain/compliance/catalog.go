package compliance

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinCatalogSize is the smallest catalog for which the issue-count formula is defined.
const MinCatalogSize = 3

var (
	ErrCatalogTooSmall  = errors.New("issue catalog must contain at least 3 entries")
	ErrDuplicateIssueID = errors.New("duplicate issue id in catalog")
	ErrInvalidIssue     = errors.New("invalid issue record")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is a validated, ordered and immutable list of issue records.
type Catalog struct {
	records []IssueRecord
	index   map[string]int
}

// NewCatalog validates records and returns a catalog holding its own copy of them.
func NewCatalog(records []IssueRecord) (*Catalog, error) {
	if len(records) < MinCatalogSize {
		return nil, fmt.Errorf("%w: got %d", ErrCatalogTooSmall, len(records))
	}
	c := &Catalog{
		records: make([]IssueRecord, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIssueID, r.ID)
		}
		c.records[i] = r.clone()
		c.index[r.ID] = i
	}
	return c, nil
}

func validateRecord(r IssueRecord) error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidIssue)
	case strings.TrimSpace(r.Text) == "":
		return fmt.Errorf("%w: %s has empty text", ErrInvalidIssue, r.ID)
	case !r.Criticality.valid():
		return fmt.Errorf("%w: %s has unknown criticality %q", ErrInvalidIssue, r.ID, r.Criticality)
	case !r.Category.valid():
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidIssue, r.ID, r.Category)
	case r.FineAmountEUR < 0:
		return fmt.Errorf("%w: %s has negative fine", ErrInvalidIssue, r.ID)
	}
	return nil
}

// ParseCatalog decodes a YAML document with a top-level "issues" list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Issues []IssueRecord `yaml:"issues"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(doc.Issues)
}

// LoadCatalog reads a catalog file; an empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the 14-entry catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns a deep copy of the records in catalog order.
func (c *Catalog) Records() []IssueRecord {
	out := make([]IssueRecord, len(c.records))
	for i, r := range c.records {
		out[i] = r.clone()
	}
	return out
}

// Lookup finds a record by id.
func (c *Catalog) Lookup(id string) (IssueRecord, bool) {
	i, ok := c.index[id]
	if !ok {
		return IssueRecord{}, false
	}
	return c.records[i].clone(), true
}
