package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	tsclient "github.com/lifexia/healthnav/internal/infrastructure/clients/typesense"
	"github.com/lifexia/healthnav/pkg/geo"
)

// queryByFields lists the document fields free-text queries match against,
// in relevance order. Tags come last so literal field matches outrank
// synonym hits.
const queryByFields = "name,speciality,category,address,benefit,services,tags"

// defaultPerPage bounds result sets when the caller does not pass a limit.
const defaultPerPage = 100

// TypesenseAdapter implements facility search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements SearchRepository
var _ repositories.SearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the locations collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(tsclient.LocationsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.LocationsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "type", Type: "string", Facet: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "speciality", Type: "string", Optional: pointer.True()},
			{Name: "address", Type: "string", Optional: pointer.True()},
			{Name: "benefit", Type: "string", Optional: pointer.True()},
			{Name: "services", Type: "string[]", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
			{Name: "rating", Type: "float"},
			{Name: "emergency", Type: "bool", Facet: pointer.True()},
			{Name: "ayushman_card", Type: "bool", Facet: pointer.True()},
			{Name: "maa_card", Type: "bool", Facet: pointer.True()},
			{Name: "open_24x7", Type: "bool", Facet: pointer.True()},
		},
		DefaultSortingField: pointer.String("rating"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// DropCollection deletes the locations collection so the next InitSchema
// recreates it from scratch. Used by the reindexer's reset path.
func (a *TypesenseAdapter) DropCollection(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.LocationsCollection).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}

// Index indexes a facility
func (a *TypesenseAdapter) Index(ctx context.Context, facility *entities.Facility) error {
	document := buildLocationDocument(facility)

	_, err := a.client.Client().Collection(tsclient.LocationsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index facility: %w", err)
	}

	return nil
}

// IndexBatch indexes a whole catalog snapshot, one upsert per record.
func (a *TypesenseAdapter) IndexBatch(ctx context.Context, facilities []*entities.Facility) error {
	for _, facility := range facilities {
		if facility == nil {
			continue
		}
		if err := a.Index(ctx, facility); err != nil {
			return fmt.Errorf("failed to index facility %s: %w", facility.ID, err)
		}
	}
	return nil
}

// Delete removes a facility from index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.LocationsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete facility from index: %w", err)
	}
	return nil
}

// Search searches facilities
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Facility, error) {
	perPage := params.Limit
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String(queryByFields),
		PerPage: pointer.Int(perPage),
	}
	if filter := buildFilter(params); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.LocationsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search facilities: %w", err)
	}

	facilities := []*entities.Facility{}
	if result.Hits == nil {
		return facilities, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		facilities = append(facilities, facilityFromDocument(*hit.Document))
	}

	if params.Latitude != 0 || params.Longitude != 0 {
		enrichWithDistance(facilities, params.Latitude, params.Longitude)
	}

	return facilities, nil
}

// buildFilter translates search parameters into a Typesense filter_by
// expression. A category term that reads as one of the two facility kinds
// narrows by type; any other term narrows by exact category value.
func buildFilter(params repositories.SearchParams) string {
	var parts []string

	category := strings.ToLower(strings.TrimSpace(params.Category))
	switch {
	case category == "" || category == "all" || category == "all resources":
		// unfiltered
	case strings.Contains(category, "pharma") || strings.Contains(category, "chemist"):
		parts = append(parts, fmt.Sprintf("type:=%s", entities.TypePharmacy))
	case category == "hospital" || category == "hospitals":
		parts = append(parts, fmt.Sprintf("type:=%s", entities.TypeHospital))
	default:
		parts = append(parts, fmt.Sprintf("category:=`%s`", strings.TrimSpace(params.Category)))
	}

	if (params.Latitude != 0 || params.Longitude != 0) && params.RadiusKm > 0 {
		parts = append(parts, fmt.Sprintf("location:(%f, %f, %f km)", params.Latitude, params.Longitude, params.RadiusKm))
	}

	return strings.Join(parts, " && ")
}

// buildLocationDocument flattens a facility into the indexed document shape.
func buildLocationDocument(facility *entities.Facility) map[string]interface{} {
	rating := 0.0
	if facility.Rating != nil {
		rating = *facility.Rating
	}

	document := map[string]interface{}{
		"id":            facility.ID,
		"name":          facility.Name,
		"type":          facility.Type,
		"category":      facility.Category,
		"location":      []float64{facility.Latitude, facility.Longitude},
		"rating":        rating,
		"emergency":     facility.Emergency,
		"ayushman_card": facility.AyushmanCard,
		"maa_card":      facility.MaaCard,
		"open_24x7":     facility.Open24x7,
	}

	if facility.Speciality != "" {
		document["speciality"] = facility.Speciality
	}
	if facility.Address != "" {
		document["address"] = facility.Address
	}
	if facility.Benefit != "" {
		document["benefit"] = facility.Benefit
	}
	if len(facility.Services) > 0 {
		document["services"] = facility.Services
	}
	if tags := buildFacilityTags(facility); len(tags) > 0 {
		document["tags"] = tags
	}

	return document
}

// facilityFromDocument reconstructs a facility entity from an indexed
// document. Typesense hands documents back as map[string]interface{}, so
// every field is cast defensively.
func facilityFromDocument(doc map[string]interface{}) *entities.Facility {
	facility := &entities.Facility{}

	if v, ok := doc["id"].(string); ok {
		facility.ID = v
	}
	if v, ok := doc["name"].(string); ok {
		facility.Name = v
	}
	if v, ok := doc["type"].(string); ok {
		facility.Type = v
	}
	if v, ok := doc["category"].(string); ok {
		facility.Category = v
	}
	if v, ok := doc["speciality"].(string); ok {
		facility.Speciality = v
	}
	if v, ok := doc["address"].(string); ok {
		facility.Address = v
	}
	if v, ok := doc["benefit"].(string); ok {
		facility.Benefit = v
	}
	if v, ok := doc["services"].([]interface{}); ok {
		for _, item := range v {
			if s, ok := item.(string); ok {
				facility.Services = append(facility.Services, s)
			}
		}
	}

	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			facility.Latitude = lat
		}
		if lng, ok := loc[1].(float64); ok {
			facility.Longitude = lng
		}
	}

	if v, ok := doc["rating"].(float64); ok && v > 0 {
		rating := v
		facility.Rating = &rating
	}
	if v, ok := doc["emergency"].(bool); ok {
		facility.Emergency = v
	}
	if v, ok := doc["ayushman_card"].(bool); ok {
		facility.AyushmanCard = v
	}
	if v, ok := doc["maa_card"].(bool); ok {
		facility.MaaCard = v
	}
	if v, ok := doc["open_24x7"].(bool); ok {
		facility.Open24x7 = v
	}

	return facility
}

// enrichWithDistance fills distance and travel estimates relative to the
// caller and orders hits nearest first.
func enrichWithDistance(facilities []*entities.Facility, lat, lng float64) {
	for _, facility := range facilities {
		distance := geo.DistanceKm(lat, lng, facility.Latitude, facility.Longitude)
		eta := geo.EstimateTravelMinutes(distance)
		facility.Distance = &distance
		facility.EstimatedTime = &eta
	}
	sort.SliceStable(facilities, func(i, j int) bool {
		return *facilities[i].Distance < *facilities[j].Distance
	})
}
