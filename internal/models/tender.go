package models

import "time"

// Document categories stored in the vector index.
const (
	CategoryTender  = "tender"
	CategoryCompany = "company"
)

// Tender is a single procurement opportunity scraped from a portal.
// Immutable once embedded; re-scraping a source replaces its tenders.
type Tender struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      *float64   `json:"amount,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Category    string     `json:"category,omitempty"`
	Department  string     `json:"department,omitempty"`
	Location    string     `json:"location,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	RawText     string     `json:"raw_text,omitempty"`
}

// EmbeddedTender pairs a tender with its embedding vector and the model
// that produced it.
type EmbeddedTender struct {
	Tender
	Vector []float32
	Model  string
}

// CompanyProfile is the structured company information extracted from a
// pasted description, a text file or a crawled profile page.
type CompanyProfile struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Services     []string `json:"services"`
	Capabilities []string `json:"capabilities"`
	Expertise    []string `json:"expertise"`
}

// SearchHit is a raw nearest-neighbour result from the vector store.
// Distance semantics depend on the configured metric.
type SearchHit struct {
	Tender   Tender
	Distance float64
}

// Recommendation is one ranked tender for a company profile. Scores are
// comparable only within a single query batch using one embedding model.
type Recommendation struct {
	TenderID string  `json:"tender_id"`
	Title    string  `json:"tender_title"`
	Score    float64 `json:"similarity_score"`
	Rank     int     `json:"rank"`
	Tender   Tender  `json:"tender_details"`
}

// Filter narrows a similarity search by tender metadata. Zero values
// leave the corresponding dimension unconstrained.
type Filter struct {
	Category       string     `json:"category,omitempty"`
	Source         string     `json:"source,omitempty"`
	Sector         string     `json:"sector,omitempty"`
	PublishedAfter *time.Time `json:"published_after,omitempty"`
	DeadlineAfter  *time.Time `json:"deadline_after,omitempty"`
}

// IsZero reports whether the filter constrains anything.
func (f Filter) IsZero() bool {
	return f.Category == "" && f.Source == "" && f.Sector == "" &&
		f.PublishedAfter == nil && f.DeadlineAfter == nil
}
