package mapsession_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifexia/healthnav/internal/mapsession"
)

func alwaysVisible(string) bool { return true }

func TestCoordinatorSelectAndClear(t *testing.T) {
	c := mapsession.NewCoordinator()
	var notified []string
	c.Subscribe(func(id string) { notified = append(notified, id) })

	c.Select("h1", alwaysVisible)
	assert.Equal(t, "h1", c.Selected())

	c.Clear()
	assert.Empty(t, c.Selected())

	assert.Equal(t, []string{"h1", ""}, notified)
}

func TestCoordinatorSelectHiddenIDClears(t *testing.T) {
	c := mapsession.NewCoordinator()
	c.Select("h1", alwaysVisible)

	c.Select("p1", func(string) bool { return false })
	assert.Empty(t, c.Selected())
}

func TestCoordinatorReselectNotifiesAgain(t *testing.T) {
	c := mapsession.NewCoordinator()
	count := 0
	c.Subscribe(func(string) { count++ })

	c.Select("h1", alwaysVisible)
	c.Select("h1", alwaysVisible)

	assert.Equal(t, 2, count, "a repeated tap re-focuses the map")
}

func TestCoordinatorClearWithoutSelectionIsSilent(t *testing.T) {
	c := mapsession.NewCoordinator()
	count := 0
	c.Subscribe(func(string) { count++ })

	c.Clear()
	assert.Zero(t, count)
}

func TestCoordinatorRevalidate(t *testing.T) {
	c := mapsession.NewCoordinator()
	count := 0
	c.Subscribe(func(string) { count++ })

	c.Select("h1", alwaysVisible)
	assert.False(t, c.Revalidate(alwaysVisible))
	assert.Equal(t, "h1", c.Selected())

	changed := c.Revalidate(func(string) bool { return false })
	assert.True(t, changed)
	assert.Empty(t, c.Selected())
	assert.Equal(t, 1, count, "revalidation must not notify; the load pass renders")
}
