package exports

import "time"

// ExportID identifier type
type ExportID string

// Variant of the spreadsheet report
type Variant string

const (
	VariantComprehensive Variant = "comprehensive"
	VariantAuthority     Variant = "authority"
)

// ParseVariant defaults to the comprehensive report.
func ParseVariant(v string) (Variant, bool) {
	switch Variant(v) {
	case "", VariantComprehensive:
		return VariantComprehensive, true
	case VariantAuthority:
		return VariantAuthority, true
	}
	return "", false
}

// Export is one generated report, kept for auditing and re-download
type Export struct {
	ID             ExportID  `json:"id"`
	ProjectID      string    `json:"project_id"`
	Variant        Variant   `json:"variant"`
	Filename       string    `json:"filename"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
	VisibilityRate int       `json:"visibility_rate"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Export `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
