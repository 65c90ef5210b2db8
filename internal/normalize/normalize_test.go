package normalize

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RichRecord(t *testing.T) {
	rating := 4.5
	rec := Record{
		ID:           "h001",
		Name:         "Civil Hospital Asarwa",
		Type:         "hospital",
		Category:     "Multi-Specialty Hospital",
		Speciality:   "General Medicine, Surgery, Gynecology",
		Lat:          23.0527,
		Lng:          72.6036,
		Address:      "Asarwa, Ahmedabad",
		Contact:      "+91-79-22683721",
		Timing:       "24x7",
		Emergency:    true,
		AyushmanCard: true,
		MaaCard:      true,
		Rating:       &rating,
		Benefit:      "Free treatment under government schemes",
		Services:     []string{"Emergency", "ICU", "Maternity"},
	}

	f, err := Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, "h001", f.ID)
	assert.Equal(t, "Civil Hospital Asarwa", f.Name)
	assert.Equal(t, "HOSPITAL", f.Type)
	assert.Equal(t, "Multi-Specialty Hospital", f.Category)
	assert.Equal(t, 23.0527, f.Latitude)
	assert.Equal(t, 72.6036, f.Longitude)
	assert.Equal(t, "+91-79-22683721", f.Contact)
	assert.True(t, f.Open24x7)
	assert.True(t, f.Emergency)
	assert.True(t, f.AyushmanCard)
	assert.True(t, f.MaaCard)
	assert.Equal(t, &rating, f.Rating)
	assert.Nil(t, f.Distance, "distance must not be fabricated")
	assert.Nil(t, f.EstimatedTime)
}

func TestNormalize_ConvertedLegacyRecord(t *testing.T) {
	rec := Record{
		ID:       float64(7),
		Name:     "Shreeji Medical Store",
		Type:     "medical store",
		Lat:      "23.0301",
		Lng:      "72.5623",
		Phone:    "079-26574839",
		Address:  "Paldi, Ahmedabad",
		Distance: "2.3 km",
	}

	f, err := Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, "7", f.ID)
	assert.Equal(t, "Pharmacy", f.Category, "type keyword should map to the legacy category label")
	assert.Equal(t, "PHARMACY", f.Type)
	assert.Equal(t, 23.0301, f.Latitude)
	assert.Equal(t, "079-26574839", f.Contact, "phone aliases to contact")
	require.NotNil(t, f.Distance)
	assert.Equal(t, 2.3, *f.Distance)
	require.NotNil(t, f.EstimatedTime)
	assert.Equal(t, 6, *f.EstimatedTime, "travel time derives from the carried distance")
}

func TestNormalize_CatalogExportRecord(t *testing.T) {
	data := []byte(`{
		"id": "h001",
		"name": "Elite Orthopaedic & Womens Hospital",
		"type": "HOSPITAL",
		"category": "Multi-Specialty",
		"speciality": "Orthopaedic",
		"lat": 23.0258,
		"lng": 72.5873,
		"contact": "+91-79-26560123",
		"emergency": true,
		"open24x7": true,
		"ayushmanCard": true,
		"maaCard": false,
		"cashlessCompanies": ["ICICI Lombard", "Star Health"],
		"certifications": ["NABH"],
		"ratings": 4.5,
		"openingHours": {"weekday": "24/7", "weekend": "24/7"}
	}`)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))

	f, err := Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, "HOSPITAL", f.Type)
	assert.Equal(t, "Multi-Specialty", f.Category)
	assert.True(t, f.Open24x7, "camel-case open24x7 spelling must be honored")
	assert.True(t, f.AyushmanCard)
	assert.False(t, f.MaaCard)
	require.NotNil(t, f.Rating)
	assert.Equal(t, 4.5, *f.Rating, "ratings aliases to rating")
	assert.Equal(t, []string{"ICICI Lombard", "Star Health"}, f.CashlessCompanies)
	assert.Equal(t, []string{"NABH"}, f.Certifications)
	assert.Equal(t, "24/7", f.Timing, "opening hours flatten into timing")
}

func TestNormalize_SplitOpeningHours(t *testing.T) {
	f, err := Normalize(Record{
		Name: "Khusboo Orthopaedic Hospital",
		Lat:  23.0320, Lng: 72.5650,
		OpeningHours: map[string]string{"weekday": "8:00-20:00", "weekend": "9:00-14:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekdays 8:00-20:00, Weekends 9:00-14:00", f.Timing)
	assert.False(t, f.Open24x7)
}

func TestNormalize_CategoryWinsOverType(t *testing.T) {
	f, err := Normalize(Record{
		Name:     "Aastha Women's Clinic",
		Category: "gynecology & maternity",
		Type:     "hospital",
		Lat:      23.0, Lng: 72.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Gynecology & Maternity", f.Category)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr error
	}{
		{
			name:    "missing coordinates",
			rec:     Record{Name: "Ghost Clinic"},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "unparseable latitude",
			rec:     Record{Name: "Ghost Clinic", Lat: "north", Lng: 72.5},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "latitude out of range",
			rec:     Record{Name: "Ghost Clinic", Lat: 123.0, Lng: 72.5},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "longitude out of range",
			rec:     Record{Name: "Ghost Clinic", Lat: 23.0, Lng: -181.0},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "missing name",
			rec:     Record{Lat: 23.0, Lng: 72.5},
			wantErr: ErrMissingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Normalize(tt.rec)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeAll_DropsBadRecordsAndDuplicates(t *testing.T) {
	records := []Record{
		{ID: "a", Name: "City Hospital", Category: "Hospital", Lat: 23.0, Lng: 72.5},
		{Name: "No Coordinates Clinic"},
		{ID: "a", Name: "Duplicate Id Hospital", Category: "Hospital", Lat: 23.1, Lng: 72.6},
		{ID: "b", Name: "Apollo Pharmacy", Category: "Pharmacy", Lat: 23.01, Lng: 72.51},
	}

	facilities, dropped := NormalizeAll(records, zerolog.Nop())

	require.Len(t, facilities, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "City Hospital", facilities[0].Name, "first occurrence of a duplicate id wins")
	assert.Equal(t, "Apollo Pharmacy", facilities[1].Name)
}

func TestNormalize_FromJSON(t *testing.T) {
	raw := `{"name":"Karuna Children Clinic","type":"child clinic","lat":"23.0450","lng":"72.5500","phone":"9898000001"}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	f, err := Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, "Pediatrician", f.Category)
	assert.NotEmpty(t, f.ID, "missing id must be synthesized")
}

func TestSynthesizeID_Deterministic(t *testing.T) {
	a := SynthesizeID("City Hospital", 23.0225, 72.5714)
	b := SynthesizeID("City Hospital", 23.0225, 72.5714)
	c := SynthesizeID("City Hospital", 23.0226, 72.5714)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "loc_")
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"gynec hospital", "Gynecologist"},
		{"Maternity Home", "Gynecologist"},
		{"ortho care", "Orthopedic"},
		{"bone & joint centre", "Orthopedic"},
		{"paediatric clinic", "Pediatrician"},
		{"child specialist", "Pediatrician"},
		{"pharmacy", "Pharmacy"},
		{"medical store", "Pharmacy"},
		{"general physician", "General Physician"},
		{"trauma centre", "Hospital"},
		{"", "Hospital"},
	}

	for _, tt := range tests {
		if got := InferCategory(tt.value); got != tt.expected {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestParseDistanceKm(t *testing.T) {
	assert.Nil(t, parseDistanceKm(nil))
	assert.Nil(t, parseDistanceKm("far away"))

	if d := parseDistanceKm(1.2); assert.NotNil(t, d) {
		assert.Equal(t, 1.2, *d)
	}
	if d := parseDistanceKm("4.7 km"); assert.NotNil(t, d) {
		assert.Equal(t, 4.7, *d)
	}
	if d := parseDistanceKm("3km"); assert.NotNil(t, d) {
		assert.Equal(t, 3.0, *d)
	}
}
