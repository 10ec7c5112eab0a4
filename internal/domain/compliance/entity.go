package compliance

// Criticality enum
type Criticality string

const (
	CriticalityHigh   Criticality = "high"
	CriticalityMedium Criticality = "medium"
	CriticalityLow    Criticality = "low"
)

// Label returns the Italian label shown in reports and emails.
func (c Criticality) Label() string {
	switch c {
	case CriticalityHigh:
		return "Alta"
	case CriticalityMedium:
		return "Media"
	case CriticalityLow:
		return "Bassa"
	default:
		return string(c)
	}
}

func (c Criticality) valid() bool {
	return c == CriticalityHigh || c == CriticalityMedium || c == CriticalityLow
}

// Category enum (closed set)
type Category string

const (
	CategoryCookiesTracking       Category = "cookies_tracking"
	CategoryPrivacyNotice         Category = "privacy_notice"
	CategoryDataCollectionConsent Category = "data_collection_consent"
	CategoryDataSubjectRights     Category = "data_subject_rights"
	CategoryDataSecurity          Category = "data_security"
	CategoryCorporateTransparency Category = "corporate_transparency"
)

var categoryLabels = map[Category]string{
	CategoryCookiesTracking:       "Cookie e Tracciamento",
	CategoryPrivacyNotice:         "Informativa Privacy",
	CategoryDataCollectionConsent: "Raccolta Dati e Consenso",
	CategoryDataSubjectRights:     "Diritti degli Interessati",
	CategoryDataSecurity:          "Sicurezza dei Dati",
	CategoryCorporateTransparency: "Trasparenza Aziendale",
}

// Label returns the Italian label of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Position is an overlay hint in percent; it has no effect on generation.
type Position struct {
	Top  float64 `json:"top" yaml:"top"`
	Left float64 `json:"left" yaml:"left"`
}

// IssueRecord is one canned compliance issue.
type IssueRecord struct {
	ID              string      `json:"id" yaml:"id"`
	Text            string      `json:"text" yaml:"text"`
	Description     string      `json:"description" yaml:"description"`
	Category        Category    `json:"category" yaml:"category"`
	Criticality     Criticality `json:"criticality" yaml:"criticality"`
	FineAmountEUR   int         `json:"fine_amount_eur" yaml:"fine_amount_eur"`
	GDPRArticle     string      `json:"gdpr_article" yaml:"gdpr_article"`
	NormTitle       string      `json:"norm_title" yaml:"norm_title"`
	PracticalAdvice string      `json:"practical_advice,omitempty" yaml:"practical_advice"`
	Position        *Position   `json:"position,omitempty" yaml:"position"`
}

// clone returns r with its own Position.
func (r IssueRecord) clone() IssueRecord {
	if r.Position != nil {
		p := *r.Position
		r.Position = &p
	}
	return r
}

// TotalFine sums the illustrative fines of the given issues.
func TotalFine(issues []IssueRecord) int {
	total := 0
	for _, is := range issues {
		total += is.FineAmountEUR
	}
	return total
}
