package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lifexia/healthnav/internal/normalize"
	"github.com/lifexia/healthnav/pkg/geo"
)

// Converts the raw hospital sheet (exported as CSV) into the locations file
// the catalog serves. Column headers are matched case-insensitively and the
// export's literal "nan" cells are treated as empty.
//
// Usage:
//
//	go run ./scripts -in "data/hospital_data.csv" -out data/locations.json

const (
	baseLatitude  = 23.0225
	baseLongitude = 72.5714
)

func main() {
	var inPath, outPath string
	flag.StringVar(&inPath, "in", "data/hospital_data.csv", "path to the exported hospital sheet")
	flag.StringVar(&outPath, "out", "data/locations.json", "path to write the converted locations file")
	flag.Parse()

	f, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", inPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read %s: %v", inPath, err)
	}
	if len(rows) < 2 {
		log.Fatalf("No data rows in %s", inPath)
	}

	cols := indexColumns(rows[0])

	records := make([]normalize.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := field(row, cols, "hospital", "name")
		if name == "" {
			continue
		}

		speciality := field(row, cols, "speciality")
		typ := speciality
		if typ == "" {
			typ = "Hospital"
		}

		lat, lng, ok := coordinates(row, cols)
		if !ok {
			lat, lng = demoCoordinates(name)
		}

		records = append(records, normalize.Record{
			Name:              name,
			Type:              typ,
			Category:          normalize.InferCategory(speciality),
			Speciality:        speciality,
			Lat:               lat,
			Lng:               lng,
			Phone:             field(row, cols, "contact number", "phone", "contact"),
			Address:           field(row, cols, "area", "address"),
			AyushmanCard:      parseBool(field(row, cols, "ayushman card")),
			Certifications:    splitList(field(row, cols, "gov. certifications", "certifications")),
			CashlessCompanies: splitList(field(row, cols, "mediclaims", "cashless companies")),
		})
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode locations: %v", err)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", outPath, err)
	}

	log.Printf("Converted %d locations to %s", len(records), outPath)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

// field returns the first non-empty cell among the named columns.
func field(row []string, cols map[string]int, names ...string) string {
	for _, name := range names {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[idx])
		if strings.EqualFold(value, "nan") {
			continue
		}
		if value != "" {
			return value
		}
	}
	return ""
}

func coordinates(row []string, cols map[string]int) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(field(row, cols, "lat", "latitude"), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(field(row, cols, "lng", "longitude"), 64)
	if err != nil {
		return 0, 0, false
	}
	if !geo.ValidCoordinates(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// demoCoordinates places a facility near the city center when the sheet has
// no coordinates. The offset derives from the name so repeated conversions
// keep every facility in place until the records are geocoded.
func demoCoordinates(name string) (float64, float64) {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	v := hasher.Sum32()

	latOffset := (float64(v%1000)/1000.0 - 0.5) * 0.1
	lngOffset := (float64((v/1000)%1000)/1000.0 - 0.5) * 0.1
	return baseLatitude + latOffset, baseLongitude + lngOffset
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" || strings.EqualFold(trimmed, "nan") {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
