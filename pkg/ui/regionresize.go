package ui

// SizeStore persists one dimension per region key across sessions.
type SizeStore interface {
	SaveRegionSize(key string, size int) error
	RegionSize(key string) (int, bool)
}

// RegionResize tracks a drag along one axis for a resizable region (a
// sidebar, a split divider) and persists the final size under a stable key.
// Size is clamped to [min, max] during the drag, not after it, so the region
// never renders out of bounds mid-gesture.
type RegionResize struct {
	key      string
	min, max int
	size     int

	dragging  bool
	startPos  int
	startSize int

	store SizeStore
}

// NewRegionResize restores the persisted size for key, falling back to def.
// A persisted value outside [min, max] is clamped rather than discarded.
func NewRegionResize(key string, def, min, max int, store SizeStore) *RegionResize {
	size := def
	if store != nil {
		if saved, ok := store.RegionSize(key); ok {
			size = saved
		}
	}
	r := &RegionResize{key: key, min: min, max: max, store: store}
	r.size = r.clamp(size)
	return r
}

func (r *RegionResize) clamp(v int) int {
	if v < r.min {
		return r.min
	}
	if v > r.max {
		return r.max
	}
	return v
}

// Size returns the current region size.
func (r *RegionResize) Size() int { return r.size }

// Restore sets the size directly (layout apply), clamped, without persisting.
func (r *RegionResize) Restore(size int) {
	if r.dragging {
		return
	}
	r.size = r.clamp(size)
}

// Dragging reports whether a gesture is in progress.
func (r *RegionResize) Dragging() bool { return r.dragging }

// Start begins a drag at the given axis position.
func (r *RegionResize) Start(pos int) {
	r.dragging = true
	r.startPos = pos
	r.startSize = r.size
}

// Move updates the size from the pointer's new axis position. Positions left
// of the start shrink the region, right of it grow it; callers invert the
// delta for dividers on the opposite edge.
func (r *RegionResize) Move(pos int) {
	if !r.dragging {
		return
	}
	r.size = r.clamp(r.startSize + (pos - r.startPos))
}

// End finishes the drag and persists the size if it changed. Calling End
// without an active drag is a no-op, so release events can be routed here
// unconditionally.
func (r *RegionResize) End() error {
	if !r.dragging {
		return nil
	}
	r.dragging = false
	if r.size == r.startSize || r.store == nil {
		return nil
	}
	return r.store.SaveRegionSize(r.key, r.size)
}

// Cancel aborts the drag and restores the size from before Start.
func (r *RegionResize) Cancel() {
	if !r.dragging {
		return
	}
	r.dragging = false
	r.size = r.startSize
}
