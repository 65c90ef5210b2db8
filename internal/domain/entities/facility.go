package entities

import "strings"

// Facility kinds used by the nearby endpoints. Everything that is not a
// pharmacy counts as a hospital-side facility.
const (
	TypeHospital = "HOSPITAL"
	TypePharmacy = "PHARMACY"
)

// Facility represents a canonical medical facility record. Every source
// (aggregation API, static catalog files, places lookups) is normalized into
// this shape before anything renders or filters it.
type Facility struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Category   string `json:"category"`
	Speciality string `json:"speciality,omitempty"`
	Address    string `json:"address,omitempty"`
	Contact    string `json:"contact,omitempty"`

	Location

	// Distance and EstimatedTime are populated only when a reference
	// location is known; they are never fabricated for an unlocated caller.
	Distance      *float64 `json:"distance,omitempty"`
	EstimatedTime *int     `json:"estimated_time,omitempty"`

	Rating   *float64 `json:"rating,omitempty"`
	Benefit  string   `json:"benefit,omitempty"`
	Services []string `json:"services,omitempty"`
	Timing   string   `json:"timing,omitempty"`

	CashlessCompanies []string `json:"cashless_companies,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`

	Open24x7     bool `json:"open_24x7,omitempty"`
	OpenNow      bool `json:"open_now,omitempty"`
	Emergency    bool `json:"emergency"`
	AyushmanCard bool `json:"ayushman_card"`
	MaaCard      bool `json:"maa_card"`
}

// IsPharmacy reports whether the record is a pharmacy-side facility.
func (f *Facility) IsPharmacy() bool {
	return f.Type == TypePharmacy
}

// Location represents geographical coordinates. It is embedded in Facility so
// the wire format stays flat (lat/lng), matching what catalog files and
// legacy aggregation responses carry.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IconBucket identifies the marker icon family used for a facility on the
// map. Categories outside the known buckets fall back to IconDefault.
type IconBucket string

const (
	IconHospital  IconBucket = "hospital"
	IconPharmacy  IconBucket = "pharmacy"
	IconMaternity IconBucket = "maternity"
	IconDefault   IconBucket = "default"
)

// IconBucketForCategory maps a category string to its icon bucket by
// case-insensitive substring. Unrecognized categories always resolve to the
// default bucket, never an error.
func IconBucketForCategory(category string) IconBucket {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "pharma") || strings.Contains(c, "chemist"):
		return IconPharmacy
	case strings.Contains(c, "gynec") || strings.Contains(c, "matern"):
		return IconMaternity
	case strings.Contains(c, "hospital"):
		return IconHospital
	default:
		return IconDefault
	}
}
