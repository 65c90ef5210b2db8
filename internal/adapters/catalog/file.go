package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/normalize"
	"github.com/lifexia/healthnav/pkg/errors"
)

// FileCatalog serves facilities from a JSON file, typically the output of the
// data converter. Raw records go through the normalizer on load, so the file
// may carry either the converted snake-case shape or a catalog export.
// Reload swaps the dataset in place; readers always see a complete snapshot.
type FileCatalog struct {
	path   string
	logger zerolog.Logger

	mu         sync.RWMutex
	facilities []*entities.Facility
	byID       map[string]*entities.Facility
}

func NewFileCatalog(path string, logger zerolog.Logger) (*FileCatalog, error) {
	c := &FileCatalog{
		path:   path,
		logger: logger.With().Str("component", "file_catalog").Str("path", path).Logger(),
	}
	if err := c.Reload(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

var _ repositories.FacilityCatalog = (*FileCatalog)(nil)

// Reload re-reads the catalog file and replaces the in-memory dataset.
// Returns the error without touching the current dataset when the file is
// unreadable or malformed, so a bad rewrite never wipes a serving catalog.
func (c *FileCatalog) Reload(ctx context.Context) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to read catalog file %s", c.path), err)
	}

	var records []normalize.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to parse catalog file %s", c.path), err)
	}

	facilities, dropped := normalize.NormalizeAll(records, c.logger)
	byID := make(map[string]*entities.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}

	c.mu.Lock()
	c.facilities = facilities
	c.byID = byID
	c.mu.Unlock()

	c.logger.Info().Int("count", len(facilities)).Int("dropped", dropped).Msg("Catalog file loaded")
	return nil
}

// Count returns the number of facilities currently served.
func (c *FileCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.facilities)
}

// ListAll returns the current dataset. Callers must not mutate the records.
func (c *FileCatalog) ListAll(ctx context.Context) ([]*entities.Facility, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*entities.Facility, len(c.facilities))
	copy(out, c.facilities)
	return out, nil
}

// GetByID retrieves one facility.
func (c *FileCatalog) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("facility not found: " + id)
	}
	return f, nil
}
