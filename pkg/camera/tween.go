package camera

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// EaseInOutCubic maps linear progress t in [0,1] onto an ease-in-out curve.
func EaseInOutCubic(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	default:
		return 1 - math.Pow(-2*t+2, 3)/2
	}
}

// span is the timing half of a transition.
type span struct {
	start time.Time
	dur   time.Duration
}

// progress returns eased progress at now and whether the span has finished.
func (s *span) progress(now time.Time) (float64, bool) {
	if s.dur <= 0 {
		return 1, true
	}
	t := float64(now.Sub(s.start)) / float64(s.dur)
	if t >= 1 {
		return 1, true
	}
	return EaseInOutCubic(t), false
}

type centerTween struct {
	span
	from, to r2.Vec
}

func (t *centerTween) at(now time.Time) (r2.Vec, bool) {
	p, done := t.progress(now)
	return r2.Add(t.from, r2.Scale(p, r2.Sub(t.to, t.from))), done
}

type zoomTween struct {
	span
	from, to float64
}

func (t *zoomTween) at(now time.Time) (float64, bool) {
	p, done := t.progress(now)
	return t.from + (t.to-t.from)*p, done
}
