package mapsession

// Coordinator owns the single selected-facility ID of a session. Selecting,
// clearing and revalidating all funnel through it so the map and the list can
// never disagree about which facility is highlighted. It is not goroutine
// safe; the owning session serializes access.
type Coordinator struct {
	selected  string
	listeners []func(selectedID string)
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Subscribe registers a listener invoked after every selection change. The
// session uses the returned ID to drive both views from one place; hosts can
// subscribe additional observers.
func (c *Coordinator) Subscribe(fn func(selectedID string)) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

// Selected returns the currently selected facility ID, empty when none.
func (c *Coordinator) Selected() string { return c.selected }

// Select sets the selection to id when the visible predicate accepts it and
// clears the selection otherwise. Selecting an ID that is not in the current
// view is the same as clearing. Listeners fire on every call, including
// re-selecting the current ID, so a repeated tap re-focuses the map.
func (c *Coordinator) Select(id string, visible func(id string) bool) {
	if id == "" || visible == nil || !visible(id) {
		c.selected = ""
	} else {
		c.selected = id
	}
	c.notify()
}

// Clear drops the selection. Listeners fire only when there was one.
func (c *Coordinator) Clear() {
	if c.selected == "" {
		return
	}
	c.selected = ""
	c.notify()
}

// Revalidate drops the selection when the visible predicate no longer accepts
// it, returning whether the selection changed. It does not fire listeners:
// callers revalidate during a load or filter pass and fold the new selection
// state into that pass's own render.
func (c *Coordinator) Revalidate(visible func(id string) bool) bool {
	if c.selected == "" {
		return false
	}
	if visible != nil && visible(c.selected) {
		return false
	}
	c.selected = ""
	return true
}

func (c *Coordinator) notify() {
	for _, fn := range c.listeners {
		fn(c.selected)
	}
}
