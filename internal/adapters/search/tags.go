package search

import (
	"strings"

	"github.com/lifexia/healthnav/internal/domain/entities"
)

// maxFacilityTags caps the tag bag per document so one record with a huge
// services list cannot bloat the index.
const maxFacilityTags = 100

// buildFacilityTags derives the deduplicated, lowercased tag bag indexed
// alongside a facility. Tags give recall beyond the literal record fields:
// a search for "chemist" should surface a record whose category only says
// "Retail Pharmacy".
func buildFacilityTags(facility *entities.Facility) []string {
	if facility == nil {
		return nil
	}

	builder := newTagBuilder(maxFacilityTags)
	builder.add(
		facility.Name,
		facility.Category,
		facility.Type,
		facility.Speciality,
		facility.Benefit,
	)
	builder.add(facility.Services...)
	builder.add(expandLayTerms(facility)...)

	return builder.tags()
}

// expandLayTerms bridges everyday vocabulary to the catalog's categories, so
// lay searches land on records phrased in provider jargon.
func expandLayTerms(facility *entities.Facility) []string {
	text := strings.ToLower(facility.Category + " " + facility.Speciality + " " + facility.Name)

	var terms []string
	if facility.IsPharmacy() || strings.Contains(text, "pharma") || strings.Contains(text, "chemist") {
		terms = append(terms, "chemist", "medical store", "medicine", "drugstore")
	}
	if strings.Contains(text, "gynec") || strings.Contains(text, "matern") || strings.Contains(text, "women") {
		terms = append(terms, "pregnancy", "maternity", "delivery", "antenatal")
	}
	if strings.Contains(text, "child") || strings.Contains(text, "paediatric") || strings.Contains(text, "pediatric") {
		terms = append(terms, "baby", "child", "infant", "paediatric")
	}
	if strings.Contains(text, "cancer") || strings.Contains(text, "oncolog") {
		terms = append(terms, "cancer", "oncology", "chemotherapy")
	}
	if strings.Contains(text, "heart") || strings.Contains(text, "cardi") {
		terms = append(terms, "heart", "cardiology", "cardiac")
	}
	if strings.Contains(text, "bone") || strings.Contains(text, "orthop") {
		terms = append(terms, "bone", "fracture", "orthopaedic", "orthopedic")
	}
	if facility.Emergency {
		terms = append(terms, "emergency", "casualty", "trauma")
	}
	return terms
}

type tagBuilder struct {
	seen  map[string]struct{}
	list  []string
	limit int
}

func newTagBuilder(limit int) *tagBuilder {
	if limit <= 0 {
		limit = maxFacilityTags
	}
	return &tagBuilder{seen: make(map[string]struct{}), limit: limit}
}

func (b *tagBuilder) add(values ...string) {
	for _, value := range values {
		if b.limit > 0 && len(b.list) >= b.limit {
			return
		}
		normalized := normalizeTag(value)
		if normalized == "" {
			continue
		}
		if _, exists := b.seen[normalized]; exists {
			continue
		}
		b.seen[normalized] = struct{}{}
		b.list = append(b.list, normalized)
	}
}

func (b *tagBuilder) tags() []string {
	return b.list
}

func normalizeTag(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
