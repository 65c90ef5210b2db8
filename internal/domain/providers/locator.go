package providers

import (
	"context"

	"github.com/lifexia/healthnav/internal/domain/entities"
)

// Locator resolves the caller's position. UI hosts back it with device
// geolocation; headless deployments use a fixed or geocoded coordinate.
// Implementations must honor ctx cancellation — the session bounds the wait
// and falls back to a default coordinate on timeout.
type Locator interface {
	Locate(ctx context.Context) (entities.Location, error)
}
