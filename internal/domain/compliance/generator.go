package compliance

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf16"
)

// Threshold is the compliance cutoff: a hashed URL is compliant when hash%10 < Threshold.
type Threshold int

const (
	// ThresholdStrict marks roughly 10% of URLs compliant (development mode).
	ThresholdStrict Threshold = 1
	// ThresholdStandard marks roughly 30% of URLs compliant (production mode).
	ThresholdStandard Threshold = 3
)

var ErrInvalidThreshold = errors.New("compliance threshold must be in [0,10)")

// Validate checks the threshold range.
func (t Threshold) Validate() error {
	if t < 0 || t >= 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, int(t))
	}
	return nil
}

// ThresholdForMode maps an operating mode to its preset.
func ThresholdForMode(mode string) Threshold {
	if mode == "development" {
		return ThresholdStrict
	}
	return ThresholdStandard
}

const maxIssues = 7

// Hash is a 31-multiplier rolling hash over UTF-16 code units, wrapped to
// signed 32 bits, returned as its absolute value.
func Hash(input string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(input)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// DecideCompliance reports whether a hashed URL is compliant.
func DecideCompliance(hashed int64, threshold Threshold) bool {
	return hashed%10 < int64(threshold)
}

// SelectIssueCount returns how many issues to report, in [1, min(7,size)-1].
func SelectIssueCount(hashed int64, catalogSize int) (int, error) {
	if catalogSize < MinCatalogSize {
		return 0, fmt.Errorf("%w: got %d", ErrCatalogTooSmall, catalogSize)
	}
	seed := hashed%100 + 1
	base := int64(min(maxIssues, catalogSize) - 1)
	return int(seed%base) + 1, nil
}

// pseudoRandom returns frac(sin(s) * 10000), a value in [0,1).
func pseudoRandom(s int64) float64 {
	x := math.Sin(float64(s)) * 10000
	return x - math.Floor(x)
}

// Shuffle returns a seeded Fisher-Yates permutation of deep copies of records.
// The input slice is left untouched.
func Shuffle(records []IssueRecord, seed int64) []IssueRecord {
	out := make([]IssueRecord, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(pseudoRandom(seed) * float64(i+1)))
		// frac can round up to 1.0 for tiny negative products
		if j > i {
			j = i
		}
		out[i], out[j] = out[j], out[i]
		seed++
	}
	return out
}

// Verdict is the full outcome of evaluating one URL.
type Verdict struct {
	Hash      int64
	Compliant bool
	Issues    []IssueRecord
}

// Generator evaluates URLs against a fixed catalog and threshold.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	catalog   *Catalog
	threshold Threshold
}

// NewGenerator validates its inputs once so that Evaluate cannot fail.
func NewGenerator(catalog *Catalog, threshold Threshold) (*Generator, error) {
	if catalog == nil || catalog.Len() < MinCatalogSize {
		return nil, ErrCatalogTooSmall
	}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}
	return &Generator{catalog: catalog, threshold: threshold}, nil
}

// Catalog returns the generator's catalog.
func (g *Generator) Catalog() *Catalog { return g.catalog }

// Threshold returns the configured threshold.
func (g *Generator) Threshold() Threshold { return g.threshold }

// Evaluate runs the full pipeline for url.
func (g *Generator) Evaluate(url string) Verdict {
	h := Hash(url)
	if DecideCompliance(h, g.threshold) {
		return Verdict{Hash: h, Compliant: true, Issues: []IssueRecord{}}
	}
	// catalog size is checked in NewGenerator
	count, _ := SelectIssueCount(h, g.catalog.Len())
	shuffled := Shuffle(g.catalog.records, h)
	return Verdict{Hash: h, Issues: shuffled[:count:count]}
}

// Generate is the functional form of Generator.Evaluate returning only the issues.
// It fails for an out-of-range threshold or a catalog that was not built with NewCatalog.
func Generate(url string, catalog *Catalog, threshold Threshold) ([]IssueRecord, error) {
	if catalog == nil {
		return nil, ErrCatalogTooSmall
	}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}
	h := Hash(url)
	if DecideCompliance(h, threshold) {
		return []IssueRecord{}, nil
	}
	count, err := SelectIssueCount(h, catalog.Len())
	if err != nil {
		return nil, err
	}
	return Shuffle(catalog.records, h)[:count:count], nil
}
