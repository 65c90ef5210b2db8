// Package normalize converts raw facility records from any source (legacy
// aggregation payloads, converted data files, places lookups) into canonical
// entities. All field aliasing, coordinate parsing, category inference, and
// id synthesis happens here so no other layer deals with source shapes.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/pkg/geo"
)

var (
	// ErrMissingName marks a record without a display name.
	ErrMissingName = errors.New("record missing name")

	// ErrInvalidCoordinates marks a record whose latitude/longitude is
	// absent, unparseable, or outside the valid range.
	ErrInvalidCoordinates = errors.New("record missing valid coordinates")
)

// Record is the union of raw facility shapes seen in the wild. Polymorphic
// fields (ids that may be numbers, coordinates and distances that may be
// strings) are declared as interface{} and resolved during normalization.
// Catalog exports of the original dataset spell several fields in camel case;
// converted legacy data spells them in snake case. The pairs are merged
// during normalization, snake case winning when both are set.
type Record struct {
	ID            interface{} `json:"id,omitempty"`
	Name          string      `json:"name"`
	Category      string      `json:"category,omitempty"`
	Type          string      `json:"type,omitempty"`
	Speciality    string      `json:"speciality,omitempty"`
	Lat           interface{} `json:"lat"`
	Lng           interface{} `json:"lng"`
	Address       string      `json:"address,omitempty"`
	Contact       string      `json:"contact,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Timing        string      `json:"timing,omitempty"`
	Distance      interface{} `json:"distance,omitempty"`
	EstimatedTime interface{} `json:"estimated_time,omitempty"`
	Rating        *float64    `json:"rating,omitempty"`
	Benefit       string      `json:"benefit,omitempty"`
	Services      []string    `json:"services,omitempty"`
	Open24x7      bool        `json:"open_24x7,omitempty"`
	OpenNow       bool        `json:"open_now,omitempty"`
	Emergency     bool        `json:"emergency,omitempty"`
	AyushmanCard  bool        `json:"ayushman_card,omitempty"`
	MaaCard       bool        `json:"maa_card,omitempty"`

	EstimatedTimeCamel interface{}       `json:"estimatedTime,omitempty"`
	Ratings            *float64          `json:"ratings,omitempty"`
	Open24x7Camel      bool              `json:"open24x7,omitempty"`
	AyushmanCardCamel  bool              `json:"ayushmanCard,omitempty"`
	MaaCardCamel       bool              `json:"maaCard,omitempty"`
	IsOpen             *bool             `json:"is_open,omitempty"`
	OpeningHours       map[string]string `json:"openingHours,omitempty"`
	CashlessCompanies  []string          `json:"cashlessCompanies,omitempty"`
	Certifications     []string          `json:"certifications,omitempty"`
}

// Normalize maps one raw record into a canonical facility. It performs no
// network calls and has no side effects; records without a name or without
// parseable in-range coordinates are rejected with a typed error.
func Normalize(rec Record) (*entities.Facility, error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, ErrMissingName
	}

	lat, ok := parseCoordinate(rec.Lat)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidCoordinates)
	}
	lng, ok := parseCoordinate(rec.Lng)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidCoordinates)
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%q (%v, %v): %w", name, lat, lng, ErrInvalidCoordinates)
	}

	id := stringifyID(rec.ID)
	if id == "" {
		id = SynthesizeID(name, lat, lng)
	}

	contact := strings.TrimSpace(rec.Contact)
	if contact == "" {
		contact = strings.TrimSpace(rec.Phone)
	}

	rating := rec.Rating
	if rating == nil {
		rating = rec.Ratings
	}

	timing := strings.TrimSpace(rec.Timing)
	if timing == "" {
		timing = formatOpeningHours(rec.OpeningHours)
	}

	category := canonicalCategory(rec.Category, rec.Type, name)

	facility := &entities.Facility{
		ID:         id,
		Name:       name,
		Type:       canonicalType(rec.Type, category),
		Category:   category,
		Speciality: strings.TrimSpace(rec.Speciality),
		Address:    strings.TrimSpace(rec.Address),
		Contact:    contact,
		Location: entities.Location{
			Latitude:  lat,
			Longitude: lng,
		},
		Rating:            rating,
		Benefit:           strings.TrimSpace(rec.Benefit),
		Services:          cleanServices(rec.Services),
		Timing:            timing,
		CashlessCompanies: cleanServices(rec.CashlessCompanies),
		Certifications:    cleanServices(rec.Certifications),
		Open24x7:          rec.Open24x7 || rec.Open24x7Camel || timingMeans24x7(timing),
		OpenNow:           rec.OpenNow || (rec.IsOpen != nil && *rec.IsOpen),
		Emergency:         rec.Emergency,
		AyushmanCard:      rec.AyushmanCard || rec.AyushmanCardCamel,
		MaaCard:           rec.MaaCard || rec.MaaCardCamel,
	}

	if distance := parseDistanceKm(rec.Distance); distance != nil {
		facility.Distance = distance
		minutes := parseMinutes(rec.EstimatedTime)
		if minutes == nil {
			minutes = parseMinutes(rec.EstimatedTimeCamel)
		}
		if minutes != nil {
			facility.EstimatedTime = minutes
		} else {
			eta := geo.EstimateTravelMinutes(*distance)
			facility.EstimatedTime = &eta
		}
	}

	return facility, nil
}

// NormalizeAll maps a batch, logging and skipping rejected records. A bad
// record never fails the batch. Duplicate ids keep the first occurrence.
func NormalizeAll(records []Record, logger zerolog.Logger) ([]*entities.Facility, int) {
	facilities := make([]*entities.Facility, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	dropped := 0

	for i, rec := range records {
		facility, err := Normalize(rec)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Dropping unnormalizable facility record")
			dropped++
			continue
		}
		if _, dup := seen[facility.ID]; dup {
			logger.Warn().Str("id", facility.ID).Str("name", facility.Name).Msg("Dropping facility with duplicate id")
			dropped++
			continue
		}
		seen[facility.ID] = struct{}{}
		facilities = append(facilities, facility)
	}

	return facilities, dropped
}

// SynthesizeID builds a deterministic id for records whose source lacks one.
// Coordinates are rounded to four decimals so re-fetches of the same place
// keep the same id.
func SynthesizeID(name string, lat, lng float64) string {
	key := fmt.Sprintf("%s|%.4f|%.4f", normalizeIdentifier(name), lat, lng)
	return "loc_" + hashString(key)
}

// canonicalType resolves the coarse facility kind used by the nearby
// endpoints. Explicit HOSPITAL/PHARMACY pass through; legacy sources abuse
// the type field for a raw speciality, so anything else derives from the
// category, with non-pharmacies counting as hospitals.
func canonicalType(typ, category string) string {
	switch strings.ToUpper(strings.TrimSpace(typ)) {
	case entities.TypeHospital:
		return entities.TypeHospital
	case entities.TypePharmacy:
		return entities.TypePharmacy
	}
	c := strings.ToLower(category)
	if strings.Contains(c, "pharma") || strings.Contains(c, "chemist") || strings.Contains(c, "medical store") {
		return entities.TypePharmacy
	}
	return entities.TypeHospital
}

// formatOpeningHours flattens the catalog-export hours object into the
// timing string the converted shape carries.
func formatOpeningHours(hours map[string]string) string {
	weekday := strings.TrimSpace(hours["weekday"])
	weekend := strings.TrimSpace(hours["weekend"])
	switch {
	case weekday == "" && weekend == "":
		return ""
	case weekend == "" || weekday == weekend:
		return weekday
	case weekday == "":
		return weekend
	default:
		return fmt.Sprintf("Weekdays %s, Weekends %s", weekday, weekend)
	}
}

func timingMeans24x7(timing string) bool {
	t := strings.ToLower(timing)
	return strings.Contains(t, "24x7") || strings.Contains(t, "24/7")
}

// canonicalCategory resolves the display category: an explicit category
// field wins, then the legacy type field mapped through the keyword table,
// then inference from the name.
func canonicalCategory(category, typ, name string) string {
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		return titleCase(trimmed)
	}
	if trimmed := strings.TrimSpace(typ); trimmed != "" {
		return InferCategory(trimmed)
	}
	return InferCategory(name)
}

// InferCategory maps a free-form token to one of the legacy category labels.
// Unmatched tokens mean a general facility, never an error. The data
// converter uses the same table so converted files and on-load inference
// agree.
func InferCategory(value string) string {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "gynec") || strings.Contains(v, "matern"):
		return "Gynecologist"
	case strings.Contains(v, "ortho") || strings.Contains(v, "bone"):
		return "Orthopedic"
	case strings.Contains(v, "paedia") || strings.Contains(v, "pedia") || strings.Contains(v, "child"):
		return "Pediatrician"
	case strings.Contains(v, "pharma") || strings.Contains(v, "medical") || strings.Contains(v, "chemist"):
		return "Pharmacy"
	case strings.Contains(v, "physician") || strings.Contains(v, "general"):
		return "General Physician"
	default:
		return "Hospital"
	}
}

func parseCoordinate(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// parseDistanceKm tolerates numeric distances and legacy "2.3 km" strings.
func parseDistanceKm(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return &parsed
		}
		return nil
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		s = strings.TrimSpace(strings.TrimSuffix(s, "km"))
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

// parseMinutes tolerates numeric minutes and "12 mins" strings.
func parseMinutes(value interface{}) *int {
	switch v := value.(type) {
	case float64:
		m := int(v)
		return &m
	case int:
		return &v
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			m := int(parsed)
			return &m
		}
		return nil
	case string:
		fields := strings.Fields(strings.TrimSpace(v))
		if len(fields) == 0 {
			return nil
		}
		if parsed, err := strconv.Atoi(fields[0]); err == nil {
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

func stringifyID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func cleanServices(services []string) []string {
	cleaned := make([]string, 0, len(services))
	for _, s := range services {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 && runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] = runes[0] - 'a' + 'A'
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

func normalizeIdentifier(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastUnderscore := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			builder.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(builder.String(), "_")
}

func hashString(value string) string {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(value))
	return fmt.Sprintf("%x", hasher.Sum32())
}
