package domain

// ExtractedReview is one review element read off a rendered page.
// EntityName may be empty when the page does not expose a name element.
type ExtractedReview struct {
	Text       string
	EntityName string
}

// Extraction is the result of rendering a source page:
// the full page text plus every matching review element.
type Extraction struct {
	PageText string
	Reviews  []ExtractedReview
}

// EntityName returns the first non-empty entity name among the
// extracted reviews, or "" when the page named no entity.
func (e Extraction) EntityName() string {
	for _, r := range e.Reviews {
		if r.EntityName != "" {
			return r.EntityName
		}
	}
	return ""
}
