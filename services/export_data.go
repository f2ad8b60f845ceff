package services

// ScopeExportData holds everything the scope spreadsheet needs.
type ScopeExportData struct {
	Title       string
	ReportID    string
	CreatedDate string
	Draft       ScopeDraft
	Summary     ScopeSummary
}

// NewScopeExportData builds export data for a saved scope.
func NewScopeExportData(draft ScopeDraft, summary ScopeSummary, createdDate string) ScopeExportData {
	return ScopeExportData{
		Title:       "Scope of Works",
		ReportID:    draft.ReportID,
		CreatedDate: createdDate,
		Draft:       draft,
		Summary:     summary,
	}
}
