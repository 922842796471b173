package camera

import (
	"time"

	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/viewport"
)

// Effect remembers the last dependency value it saw and reports changes.
// The zero value fires on its first Changed call.
type Effect[T comparable] struct {
	last   T
	primed bool
}

// Changed records deps and reports whether they differ from the previous call.
func (e *Effect[T]) Changed(deps T) bool {
	if e.primed && e.last == deps {
		return false
	}
	e.last, e.primed = deps, true
	return true
}

// Reset forgets the last value so the next Changed fires.
func (e *Effect[T]) Reset() {
	var zero T
	e.last, e.primed = zero, false
}

// Deps are the inputs that invalidate the current framing.
type Deps struct {
	GraphRevision uint64
	Mode          model.ViewMode
	Size          viewport.Size
}

// Sync refits when any dependency changed since the last call and reports
// whether it did.
func (c *Controller) Sync(now time.Time, deps Deps) bool {
	if !c.effect.Changed(deps) {
		return false
	}
	c.Refit(now)
	return true
}
