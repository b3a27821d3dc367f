package patentdoc

// NotAvailable marks a field that was looked for and not found, as opposed
// to one that was never extracted. Callers render it as-is.
const NotAvailable = "Not available"

const truncationMarker = "...[truncated]"

type Image struct {
	URL         string `json:"url"`
	Alt         string `json:"alt"`
	IsStructure bool   `json:"is_structure"`
}

// Record is the extraction result for one patent document. Partial
// extraction is the normal case: each field defaults independently.
// Company is nil when no applicant or assignee name was found; an empty
// string would mean a name element existed with empty text.
type Record struct {
	PatentID        string   `json:"patent_id"`
	Title           string   `json:"title"`
	TitleNonEnglish bool     `json:"title_non_english,omitempty"`
	Abstract        string   `json:"abstract"`
	Description     string   `json:"description"`
	Company         *string  `json:"company"`
	Claims          string   `json:"claims,omitempty"`
	Inventors       []string `json:"inventors,omitempty"`
	FilingDate      string   `json:"filing_date,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Images          []Image  `json:"images,omitempty"`
}

// EmptyRecord is what extractors return when the input cannot be parsed at
// all. Description stays empty rather than sentinel: callers substitute the
// abstract for image-only descriptions, and an unparseable document gets the
// same treatment.
func EmptyRecord() Record {
	return Record{
		PatentID: NotAvailable,
		Title:    NotAvailable,
		Abstract: NotAvailable,
	}
}

// CompanyName returns the joined assignee list or the sentinel.
func (r Record) CompanyName() string {
	if r.Company == nil {
		return NotAvailable
	}
	return *r.Company
}

// BodyText returns the description, or the abstract when the description is
// empty (image-only filings). Returns "" only when both are unusable.
func (r Record) BodyText() string {
	if r.Description != "" {
		return r.Description
	}
	if r.Abstract != NotAvailable {
		return r.Abstract
	}
	return ""
}
