package mapsession

import (
	"sort"
	"strings"

	"github.com/lifexia/healthnav/internal/domain/entities"
)

// FilterAll is the category filter that matches every facility.
const FilterAll = "all"

// SortKey selects the ordering applied to the filtered view.
type SortKey string

const (
	SortNone     SortKey = ""
	SortDistance SortKey = "distance"
	SortRating   SortKey = "rating"
	SortName     SortKey = "name"
)

// Store holds the facilities of one session: the loaded records, the active
// category filter, the active search query and the requested sort. It is not
// goroutine safe; the owning session serializes access.
type Store struct {
	records []*entities.Facility
	index   map[string]*entities.Facility
	filter  string
	query   string
	sortKey SortKey
}

func NewStore() *Store {
	return &Store{
		index:  make(map[string]*entities.Facility),
		filter: FilterAll,
	}
}

// Load replaces the full record set. Records with a duplicate ID are dropped,
// first occurrence wins, so the ID index stays unambiguous. Returns the number
// of records kept.
func (s *Store) Load(records []*entities.Facility) int {
	s.records = s.records[:0]
	s.index = make(map[string]*entities.Facility, len(records))
	for _, f := range records {
		if f == nil {
			continue
		}
		if _, seen := s.index[f.ID]; seen {
			continue
		}
		s.records = append(s.records, f)
		s.index[f.ID] = f
	}
	return len(s.records)
}

// SetFilter sets the active category filter. Empty input and the "all
// resources" spellings the UI ships mean all.
func (s *Store) SetFilter(category string) {
	category = strings.TrimSpace(category)
	switch strings.ToLower(category) {
	case "", FilterAll, "all resources":
		s.filter = FilterAll
	default:
		s.filter = category
	}
}

func (s *Store) Filter() string { return s.filter }

// SetQuery sets the free-text search query forwarded to the facility source.
func (s *Store) SetQuery(query string) {
	s.query = strings.TrimSpace(query)
}

func (s *Store) Query() string { return s.query }

// SetSort sets the ordering applied by FilteredSorted.
func (s *Store) SetSort(key SortKey) { s.sortKey = key }

func (s *Store) Sort() SortKey { return s.sortKey }

// All returns every loaded record in load order. The slice is shared; callers
// must not mutate it.
func (s *Store) All() []*entities.Facility { return s.records }

// Count returns the number of loaded records.
func (s *Store) Count() int { return len(s.records) }

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*entities.Facility, bool) {
	f, ok := s.index[id]
	return f, ok
}

// Filtered returns the records matching the active category filter, in load
// order. With the all filter it returns every record.
func (s *Store) Filtered() []*entities.Facility {
	if s.filter == FilterAll {
		return s.records
	}
	matched := make([]*entities.Facility, 0, len(s.records))
	for _, f := range s.records {
		if matchesCategory(f, s.filter) {
			matched = append(matched, f)
		}
	}
	return matched
}

// FilteredSorted returns the filtered records in the requested sort order.
// With SortNone the load order is preserved.
func (s *Store) FilteredSorted() []*entities.Facility {
	return SortFacilities(s.Filtered(), s.sortKey)
}

// InFiltered reports whether the record with the given ID is part of the
// current filtered view. The selection coordinator uses it to decide whether
// a selection is still visible.
func (s *Store) InFiltered(id string) bool {
	f, ok := s.index[id]
	if !ok {
		return false
	}
	if s.filter == FilterAll {
		return true
	}
	return matchesCategory(f, s.filter)
}

// matchesCategory matches the facility category against the filter term,
// case-insensitive, substring in either direction. A facility categorized
// "Multi-Specialty Hospital" matches the filter "hospital" and the filter
// "Multi-Specialty Hospital" matches a facility categorized "Hospital".
func matchesCategory(f *entities.Facility, filter string) bool {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	term := strings.ToLower(filter)
	if category == "" || term == "" {
		return false
	}
	return strings.Contains(category, term) || strings.Contains(term, category)
}

// SortFacilities returns a new slice ordered by the given key. The sort is
// stable and records missing the sort attribute go last. SortNone returns a
// copy in the original order.
func SortFacilities(records []*entities.Facility, key SortKey) []*entities.Facility {
	out := make([]*entities.Facility, len(records))
	copy(out, records)
	switch key {
	case SortDistance:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Distance, out[j].Distance
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a < *b
		})
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Rating, out[j].Rating
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a > *b
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out
}
