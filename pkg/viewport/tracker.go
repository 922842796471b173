// Package viewport tracks the pixel size of the dashboard's graph container
// and republishes it to subscribers when it changes.
package viewport

import (
	"sort"
)

// Default dimensions used until the container has a real layout.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Size is a container size in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Default returns the fallback size.
func Default() Size {
	return Size{Width: DefaultWidth, Height: DefaultHeight}
}

// Sanitize replaces zero, negative or non-finite dimensions with the defaults.
func (s Size) Sanitize() Size {
	if !(s.Width > 0) || s.Width > 1e9 {
		s.Width = DefaultWidth
	}
	if !(s.Height > 0) || s.Height > 1e9 {
		s.Height = DefaultHeight
	}
	return s
}

// MeasureFunc reports the container's current content box.
type MeasureFunc func() Size

// Tracker holds the last published size and a set of subscribers. It is not
// safe for concurrent use; the UI event loop is its only caller.
type Tracker struct {
	size    Size
	mounted bool
	nextID  int
	subs    map[int]func(Size)
}

// NewTracker returns an unmounted tracker reporting the default size.
func NewTracker() *Tracker {
	return &Tracker{size: Default(), subs: make(map[int]func(Size))}
}

// Mount performs the initial measurement and publishes it.
func (t *Tracker) Mount(measure MeasureFunc) Size {
	t.mounted = true
	s := Default()
	if measure != nil {
		s = measure()
	}
	t.Observe(s)
	return t.size
}

// Mounted reports whether Mount has been called since the last Unmount.
func (t *Tracker) Mounted() bool {
	return t.mounted
}

// Observe handles a resize notification. Subscribers are notified only if the
// sanitized size differs from the last published one.
func (t *Tracker) Observe(s Size) bool {
	s = s.Sanitize()
	if s == t.size {
		return false
	}
	t.size = s
	for _, id := range t.subscriberIDs() {
		t.subs[id](s)
	}
	return true
}

// Size returns the last published size.
func (t *Tracker) Size() Size {
	return t.size
}

// Subscribe registers fn for size changes. The returned func deregisters it.
func (t *Tracker) Subscribe(fn func(Size)) (cancel func()) {
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return func() { delete(t.subs, id) }
}

// Subscribers returns the number of live subscriptions.
func (t *Tracker) Subscribers() int {
	return len(t.subs)
}

// Unmount drops every subscription.
func (t *Tracker) Unmount() {
	t.mounted = false
	t.subs = make(map[int]func(Size))
}

func (t *Tracker) subscriberIDs() []int {
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
