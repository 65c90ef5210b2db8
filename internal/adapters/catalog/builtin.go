// Package catalog provides the facility dataset backends: the built-in
// Ahmedabad dataset, file-based catalogs produced by the converter, and a
// cache-backed decorator.
package catalog

import (
	"context"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/pkg/errors"
)

// BuiltinCatalog serves the embedded Ahmedabad hospital and pharmacy dataset.
// It needs no I/O and is the fallback when no catalog file is configured.
type BuiltinCatalog struct {
	facilities []*entities.Facility
	byID       map[string]*entities.Facility
}

func NewBuiltinCatalog() *BuiltinCatalog {
	facilities := builtinFacilities()
	byID := make(map[string]*entities.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}
	return &BuiltinCatalog{facilities: facilities, byID: byID}
}

var _ repositories.FacilityCatalog = (*BuiltinCatalog)(nil)

// ListAll returns the full dataset. Callers must not mutate the records.
func (c *BuiltinCatalog) ListAll(ctx context.Context) ([]*entities.Facility, error) {
	out := make([]*entities.Facility, len(c.facilities))
	copy(out, c.facilities)
	return out, nil
}

// GetByID retrieves one facility.
func (c *BuiltinCatalog) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	f, ok := c.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("facility not found: " + id)
	}
	return f, nil
}

func rating(v float64) *float64 { return &v }

// builtinFacilities returns fresh copies of the embedded dataset so callers
// holding records across catalog swaps never alias each other.
func builtinFacilities() []*entities.Facility {
	return []*entities.Facility{
		{
			ID:                "h001",
			Name:              "Elite Orthopaedic & Womens Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Orthopaedic",
			Location:          entities.Location{Latitude: 23.0258, Longitude: 72.5873},
			Address:           "Navrangpura, Ahmedabad, Gujarat 380009",
			Contact:           "+91-79-26560123",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"ICICI Lombard", "Star Health", "HDFC Ergo"},
			Services:          []string{"Orthopaedic Surgery", "Joint Replacement", "Gynaecology", "Maternity", "Emergency"},
			Certifications:    []string{"NABH"},
			Rating:            rating(4.5),
			Benefit:           "Advanced joint replacement center with robotic-assisted surgery. Cashless treatment with major insurance providers.",
			Timing:            "24/7",
		},
		{
			ID:                "h002",
			Name:              "Sannidhya Gynaec Hospital",
			Type:              entities.TypeHospital,
			Category:          "Specialty",
			Speciality:        "Gynaecology",
			Location:          entities.Location{Latitude: 23.0150, Longitude: 72.5560},
			Address:           "Chekla Goplnagar, Ahmedabad, Gujarat 380015",
			Contact:           "+91-79-26340567",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			MaaCard:           true,
			CashlessCompanies: []string{"Star Health", "New India Assurance"},
			Services:          []string{"Gynaecology", "Obstetrics", "Maternity", "IVF", "Laparoscopy"},
			Rating:            rating(4.3),
			Benefit:           "Specialized women's healthcare. Accepts Ayushman Bharat & MAA Vatsalya cards for cashless maternity care.",
			Timing:            "24/7",
		},
		{
			ID:                "h003",
			Name:              "Khusboo Orthopaedic Hospital",
			Type:              entities.TypeHospital,
			Category:          "Specialty",
			Speciality:        "Orthopaedic",
			Location:          entities.Location{Latitude: 23.0320, Longitude: 72.5650},
			Address:           "Ghatlodia, Ahmedabad, Gujarat 380061",
			Contact:           "+91-79-27430890",
			Emergency:         true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"ICICI Lombard", "Bajaj Allianz"},
			Services:          []string{"Orthopaedic Surgery", "Fracture Treatment", "Physiotherapy", "Spine Surgery"},
			Rating:            rating(4.2),
			Benefit:           "Expert fracture & spine care. Cashless with Ayushman Bharat card.",
			Timing:            "Weekdays 8:00-20:00, Weekends 9:00-14:00",
		},
		{
			ID:                "h004",
			Name:              "Star Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0180, Longitude: 72.5700},
			Address:           "Naranpura, Ahmedabad, Gujarat 380013",
			Contact:           "+91-79-27560456",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			MaaCard:           true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Max Bupa"},
			Services:          []string{"Cardiology", "Neurology", "Orthopaedics", "Emergency", "ICU", "Paediatrics"},
			Certifications:    []string{"NABH", "NABL"},
			Rating:            rating(4.6),
			Benefit:           "Full-service multi-specialty hospital. NABH accredited with 24/7 emergency and ICU facilities.",
			Timing:            "24/7",
		},
		{
			ID:                "h005",
			Name:              "Vanza Hospital",
			Type:              entities.TypeHospital,
			Category:          "General",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0095, Longitude: 72.5520},
			Address:           "Nava Vadaj, Ahmedabad, Gujarat 380013",
			Contact:           "+91-79-29290345",
			Emergency:         true,
			Open24x7:          true,
			MaaCard:           true,
			CashlessCompanies: []string{"New India Assurance"},
			Services:          []string{"General Medicine", "Surgery", "Maternity", "Paediatrics", "Emergency"},
			Rating:            rating(4.0),
			Benefit:           "Affordable multi-specialty care. MAA Vatsalya card accepted for maternity services.",
			Timing:            "24/7",
		},
		{
			ID:                "h006",
			Name:              "Shreeji Children Hospital",
			Type:              entities.TypeHospital,
			Category:          "Specialty",
			Speciality:        "Pediatrics",
			Location:          entities.Location{Latitude: 23.0050, Longitude: 72.5480},
			Address:           "Ranip, Ahmedabad, Gujarat 382480",
			Contact:           "+91-79-27550198",
			Emergency:         true,
			AyushmanCard:      true,
			MaaCard:           true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard"},
			Services:          []string{"Paediatrics", "Neonatology", "Child Surgery", "Vaccination"},
			Rating:            rating(4.4),
			Benefit:           "Dedicated children's hospital with NICU facility. Ayushman & MAA cards accepted.",
			Timing:            "Weekdays 8:00-21:00, Weekends 9:00-18:00",
		},
		{
			ID:             "h007",
			Name:           "Civil Hospital Ahmedabad",
			Type:           entities.TypeHospital,
			Category:       "Government",
			Speciality:     "Multispeciality",
			Location:       entities.Location{Latitude: 23.0450, Longitude: 72.5980},
			Address:        "Asarwa, Ahmedabad, Gujarat 380016",
			Contact:        "+91-79-22683721",
			Emergency:      true,
			Open24x7:       true,
			AyushmanCard:   true,
			MaaCard:        true,
			Services:       []string{"All Specialties", "Trauma Center", "Emergency", "ICU", "Blood Bank", "Radiology"},
			Certifications: []string{"NABH"},
			Rating:         rating(3.8),
			Benefit:        "Largest government hospital in Gujarat. Free treatment under Ayushman Bharat. All specialties available.",
			Timing:         "24/7",
		},
		{
			ID:                "h008",
			Name:              "SAL Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0520, Longitude: 72.5350},
			Address:           "Drive-In Road, Ahmedabad, Gujarat 380054",
			Contact:           "+91-79-40200200",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Bajaj Allianz", "Max Bupa"},
			Services:          []string{"Cardiac Surgery", "Neurosurgery", "Orthopaedics", "Oncology", "Gastroenterology"},
			Certifications:    []string{"NABH", "NABL"},
			Rating:            rating(4.7),
			Benefit:           "Premier multi-specialty hospital. Advanced cardiac care center with robotic surgery capabilities.",
			Timing:            "24/7",
		},
		{
			ID:                "h009",
			Name:              "Zydus Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0700, Longitude: 72.5170},
			Address:           "SG Highway, Ahmedabad, Gujarat 380054",
			Contact:           "+91-79-66190000",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Bajaj Allianz", "Tata AIG"},
			Services:          []string{"Cardiology", "Transplant", "Oncology", "Neurosurgery", "Emergency", "Robotics"},
			Certifications:    []string{"NABH", "JCI"},
			Rating:            rating(4.8),
			Benefit:           "JCI accredited international-standard hospital. Organ transplant center. Proton therapy for cancer.",
			Timing:            "24/7",
		},
		{
			ID:                "h010",
			Name:              "Apollo Hospital Ahmedabad",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0380, Longitude: 72.5090},
			Address:           "Bhat, GIFT City Road, Ahmedabad, Gujarat",
			Contact:           "+91-79-66701800",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Bajaj Allianz", "Max Bupa", "Tata AIG"},
			Services:          []string{"All Specialties", "Robotic Surgery", "Transplant", "Emergency", "Heart Center"},
			Certifications:    []string{"NABH", "JCI"},
			Rating:            rating(4.7),
			Benefit:           "Part of Apollo Hospitals chain. International quality healthcare with 24/7 emergency services.",
			Timing:            "24/7",
		},
		{
			ID:                "h011",
			Name:              "Shalby Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Orthopaedic",
			Location:          entities.Location{Latitude: 23.0130, Longitude: 72.5310},
			Address:           "S.G. Highway, Ahmedabad, Gujarat 380015",
			Contact:           "+91-79-40500500",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo"},
			Services:          []string{"Joint Replacement", "Spine Surgery", "Orthopaedics", "Physiotherapy", "Sports Medicine"},
			Certifications:    []string{"NABH"},
			Rating:            rating(4.5),
			Benefit:           "India's leading joint replacement hospital. Over 1 lakh successful surgeries performed.",
			Timing:            "24/7",
		},
		{
			ID:                "h012",
			Name:              "HCG Cancer Centre",
			Type:              entities.TypeHospital,
			Category:          "Specialty",
			Speciality:        "Oncology",
			Location:          entities.Location{Latitude: 23.0405, Longitude: 72.5560},
			Address:           "Mithakali, Ahmedabad, Gujarat 380006",
			Contact:           "+91-79-66280000",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Bajaj Allianz"},
			Services:          []string{"Medical Oncology", "Radiation Therapy", "Chemotherapy", "PET Scan", "BMT"},
			Certifications:    []string{"NABH"},
			Rating:            rating(4.6),
			Benefit:           "Specialized cancer treatment center. Advanced radiation therapy and bone marrow transplant.",
			Timing:            "24/7",
		},
		{
			ID:                "h013",
			Name:              "CIMS Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0580, Longitude: 72.5350},
			Address:           "Science City Road, Sola, Ahmedabad, Gujarat",
			Contact:           "+91-79-27712771",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Max Bupa"},
			Services:          []string{"Cardiology", "Neurosurgery", "Gastro", "Urology", "Emergency", "ICU"},
			Certifications:    []string{"NABH"},
			Rating:            rating(4.5),
			Benefit:           "Advanced cardiac care with TAVI facility. 300+ bed multi-specialty hospital.",
			Timing:            "24/7",
		},
		{
			ID:                "h014",
			Name:              "Pramukhswami Eye Hospital",
			Type:              entities.TypeHospital,
			Category:          "Specialty",
			Speciality:        "Ophthalmology",
			Location:          entities.Location{Latitude: 23.0480, Longitude: 72.5450},
			Address:           "Paldi, Ahmedabad, Gujarat 380007",
			Contact:           "+91-79-26550111",
			AyushmanCard:      true,
			CashlessCompanies: []string{"Star Health"},
			Services:          []string{"Cataract Surgery", "LASIK", "Glaucoma", "Retina Treatment"},
			Rating:            rating(4.4),
			Benefit:           "Affordable eye care. Ayushman card accepted for cataract and eye surgeries.",
			Timing:            "Weekdays 9:00-18:00, Weekends 9:00-13:00",
		},
		{
			ID:                "h015",
			Name:              "KD Hospital",
			Type:              entities.TypeHospital,
			Category:          "Multi-Specialty",
			Speciality:        "Multispeciality",
			Location:          entities.Location{Latitude: 23.0600, Longitude: 72.5680},
			Address:           "Vaishnodevi Circle, SG Highway, Ahmedabad",
			Contact:           "+91-79-66770000",
			Emergency:         true,
			Open24x7:          true,
			AyushmanCard:      true,
			MaaCard:           true,
			CashlessCompanies: []string{"Star Health", "ICICI Lombard", "HDFC Ergo", "Bajaj Allianz"},
			Services:          []string{"All Specialties", "Transplant", "Emergency", "Robotic Surgery", "Rehabilitation"},
			Certifications:    []string{"NABH"},
			Rating:            rating(4.5),
			Benefit:           "State-of-the-art 400-bed hospital. Kidney and liver transplant center.",
			Timing:            "24/7",
		},
		{
			ID:         "p001",
			Name:       "MedPlus Pharmacy - Navrangpura",
			Type:       entities.TypePharmacy,
			Category:   "Retail Pharmacy",
			Speciality: "Pharmacy",
			Location:   entities.Location{Latitude: 23.0280, Longitude: 72.5850},
			Address:    "Navrangpura, Ahmedabad, Gujarat 380009",
			Contact:    "+91-79-26560999",
			Services:   []string{"Prescription Medicines", "OTC Medicines", "Health Products", "Home Delivery"},
			Rating:     rating(4.1),
			Benefit:    "Trusted pharmacy chain. Home delivery available. Genuine medicines guaranteed.",
			Timing:     "Weekdays 8:00-22:00, Weekends 9:00-21:00",
		},
		{
			ID:         "p002",
			Name:       "Apollo Pharmacy - CG Road",
			Type:       entities.TypePharmacy,
			Category:   "Retail Pharmacy",
			Speciality: "Pharmacy",
			Location:   entities.Location{Latitude: 23.0300, Longitude: 72.5620},
			Address:    "CG Road, Ahmedabad, Gujarat 380006",
			Contact:    "+91-79-26460333",
			Open24x7:   true,
			Services:   []string{"Prescription Medicines", "OTC Medicines", "Diagnostics", "Home Delivery"},
			Rating:     rating(4.3),
			Benefit:    "24/7 pharmacy service. Part of Apollo chain. Diagnostic services available.",
			Timing:     "24/7",
		},
		{
			ID:         "p003",
			Name:       "Netmeds Pharmacy - Ghatlodia",
			Type:       entities.TypePharmacy,
			Category:   "Retail Pharmacy",
			Speciality: "Pharmacy",
			Location:   entities.Location{Latitude: 23.0340, Longitude: 72.5430},
			Address:    "Ghatlodia, Ahmedabad, Gujarat 380061",
			Contact:    "+91-79-27430555",
			Services:   []string{"Prescription Medicines", "OTC Medicines", "Health Supplements"},
			Rating:     rating(4.0),
			Benefit:    "Affordable generic medicines available. Quick prescription processing.",
			Timing:     "Weekdays 9:00-21:00, Weekends 10:00-20:00",
		},
	}
}
