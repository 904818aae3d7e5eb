package domain

// Status is the lifecycle state of a short link as authored by the system of record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired:
		return true
	default:
		return false
	}
}

// ShortLink is the document a short identifier resolves to.
//
// It is owned by an external system of record. The cache only ever holds a
// verbatim copy, so a ShortLink is passed and stored by value and never
// mutated once decoded.
type ShortLink struct {
	// Slug is the human-readable path segment used in the outbound redirect.
	Slug string `json:"slug" validate:"required"`

	Status Status `json:"status" validate:"required,oneof=active inactive expired"`

	// MerchantID and CampaignID are opaque and only forwarded as tracking parameters.
	MerchantID string `json:"merchantId" validate:"required"`
	CampaignID string `json:"campaignId" validate:"required"`

	// UpdatedAt is an ISO-8601 timestamp. Informational only.
	UpdatedAt string `json:"updatedAt" validate:"required"`
}

// IsActive reports whether the link is eligible for a redirect.
// Only the status is considered; UpdatedAt plays no part.
func IsActive(link ShortLink) bool {
	return link.Status == StatusActive
}

// Lookup is the outcome of a single tier (cache or fallback) lookup.
//
// A lookup is either Found with a ShortLink, or absent. An absent lookup may
// carry the fault that caused it (Err != nil); a clean miss has Err == nil.
// Callers above the tier boundary treat every absent lookup the same way.
type Lookup struct {
	ShortLink ShortLink
	Found     bool
	Err       error
}

// Found wraps a resolved ShortLink.
func Found(link ShortLink) Lookup {
	return Lookup{ShortLink: link, Found: true}
}

// Absent is a miss. err is nil for a clean miss and the fault otherwise.
func Absent(err error) Lookup {
	return Lookup{Err: err}
}

// Faulted reports whether the lookup is absent because of a backend fault.
func (l Lookup) Faulted() bool {
	return !l.Found && l.Err != nil
}
