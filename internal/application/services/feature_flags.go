package services

import (
	"os"
)

type FeatureFlags struct {
	searchIndexEnabled bool
	shareEnabled       bool
	placesEnabled      bool
}

func NewFeatureFlags() *FeatureFlags {
	searchIndex := os.Getenv("FEATURE_SEARCH_INDEX") == "true"
	share := os.Getenv("FEATURE_SHARE") == "true"
	places := os.Getenv("FEATURE_PLACES") == "true"

	return &FeatureFlags{
		searchIndexEnabled: searchIndex,
		shareEnabled:       share,
		placesEnabled:      places,
	}
}

// SearchIndexEnabled reports whether full-text search goes through the
// search index instead of in-memory matching.
func (f *FeatureFlags) SearchIndexEnabled() bool {
	return f.searchIndexEnabled
}

// ShareEnabled reports whether the WhatsApp directions-share endpoint is on.
func (f *FeatureFlags) ShareEnabled() bool {
	return f.shareEnabled
}

// PlacesEnabled reports whether the places lookup source supplements the
// catalog.
func (f *FeatureFlags) PlacesEnabled() bool {
	return f.placesEnabled
}
