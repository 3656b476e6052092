package vision

import (
	"photogallery/internal/domain"
	"photogallery/internal/helpers"
)

// Fallback derives deterministic enrichment metadata from the original
// filename. It is used whenever the caption service cannot, so that every
// ingestion ends up with a usable title regardless of the service's health.
func Fallback(filename string) domain.EnrichmentMetadata {
	return domain.EnrichmentMetadata{
		Title:       helpers.Humanize(helpers.Stem(filename)),
		Caption:     "AI analysis unavailable",
		Description: "",
		Tags:        []string{},
		Category:    "uncategorized",
	}
}
