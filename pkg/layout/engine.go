// Package layout runs the force-directed simulation that positions graph
// nodes. The model follows d3-force: a many-body charge between every pair of
// nodes (Barnes-Hut approximated), a spring along every link, a centering
// force, and velocity decay, all scaled by a decaying alpha.
//
// The engine exclusively owns node positions for the lifetime of one seeded
// snapshot. Readers get copies through Positions.
package layout

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// Config holds the simulation knobs.
type Config struct {
	ChargeStrength    float64 // negative repels
	ChargeDistanceMin float64
	Theta             float64 // Barnes-Hut accuracy
	LinkDistance      float64
	CenterStrength    float64
	AlphaMin          float64
	AlphaDecay        float64
	VelocityDecay     float64 // fraction of velocity lost per tick
	CooldownTicks     int
	StopEnergy        float64 // mean squared speed below which the engine stops
	Seed              int64
}

// DefaultConfig mirrors the knowledge-graph dashboard's physics settings.
func DefaultConfig() Config {
	return Config{
		ChargeStrength:    -120,
		ChargeDistanceMin: 1,
		Theta:             0.9,
		LinkDistance:      70,
		CenterStrength:    1,
		AlphaMin:          0.001,
		AlphaDecay:        0.01,
		VelocityDecay:     0.4,
		CooldownTicks:     100,
		StopEnergy:        0.01,
		Seed:              1,
	}
}

// Event is emitted by Tick.
type Event int

const (
	// EventNone means the simulation advanced or nothing happened.
	EventNone Event = iota
	// EventStopped is emitted once per seeding, on the tick the engine settles.
	EventStopped
)

// body adapts a node to barneshut.Particle2. Pointers keep identity checks
// inside the quadtree cheap.
type body struct {
	pos r2.Vec
}

func (b *body) Coord2() r2.Vec { return b.pos }
func (b *body) Mass() float64  { return 1 }

type spring struct {
	src, dst int
	strength float64
	bias     float64
}

// Engine is a single-threaded force simulation.
type Engine struct {
	cfg Config
	rng *rand.Rand

	nodes   []model.Node
	links   []model.Link
	springs []spring

	epoch   uint64
	alpha   float64
	ticks   int
	running bool
	energy  float64
}

// New returns an idle engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Seed replaces the simulated graph and restarts the simulation. Nodes are
// copied; the engine never holds references into g or the previous graph. The returned epoch must be
// passed to Tick; ticks carrying an older epoch are discarded.
func (e *Engine) Seed(g model.Graph) uint64 {
	e.epoch++
	prev := make(map[string][2]float64, len(e.nodes))
	for _, n := range e.nodes {
		prev[n.ID] = [2]float64{n.X, n.Y}
	}
	e.nodes = make([]model.Node, len(g.Nodes))
	copy(e.nodes, g.Nodes)
	e.links = make([]model.Link, 0, len(g.Links))
	e.springs = e.springs[:0]

	index := make(map[string]int, len(e.nodes))
	for i := range e.nodes {
		index[e.nodes[i].ID] = i
	}

	count := make([]int, len(e.nodes))
	type pair struct{ s, d int }
	var pairs []pair
	for _, l := range g.Links {
		s, okS := index[l.Source]
		d, okD := index[l.Target]
		if !okS || !okD {
			continue
		}
		e.links = append(e.links, l)
		if s == d {
			continue
		}
		count[s]++
		count[d]++
		pairs = append(pairs, pair{s, d})
	}
	for _, p := range pairs {
		e.springs = append(e.springs, spring{
			src:      p.s,
			dst:      p.d,
			strength: 1 / float64(min(count[p.s], count[p.d])),
			bias:     float64(count[p.s]) / float64(count[p.s]+count[p.d]),
		})
	}

	e.place(prev)
	e.alpha = 1
	e.ticks = 0
	e.energy = 0
	e.running = len(e.nodes) > 0
	debug.Log("layout: seeded epoch %d with %d nodes, %d springs", e.epoch, len(e.nodes), len(e.springs))
	return e.epoch
}

// place clears velocities and positions nodes that arrived without
// coordinates: a node seen in the previous seeding keeps its old position,
// anything else gets a phyllotaxis slot.
func (e *Engine) place(prev map[string][2]float64) {
	const initialRadius = 10
	initialAngle := math.Pi * (3 - math.Sqrt(5))
	for i := range e.nodes {
		n := &e.nodes[i]
		n.VX, n.VY = 0, 0
		if (n.X != 0 || n.Y != 0) && finite(n.X) && finite(n.Y) {
			continue
		}
		if p, ok := prev[n.ID]; ok && finite(p[0]) && finite(p[1]) {
			n.X, n.Y = p[0], p[1]
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		n.X, n.Y = r*math.Cos(a), r*math.Sin(a)
	}
}

// Epoch returns the current seeding generation.
func (e *Engine) Epoch() uint64 {
	return e.epoch
}

// Running reports whether the simulation still has ticks to run.
func (e *Engine) Running() bool {
	return e.running
}

// Ticks returns the number of ticks run since the last Seed.
func (e *Engine) Ticks() int {
	return e.ticks
}

// Alpha returns the current simulation temperature.
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Energy returns the mean squared node speed after the last tick.
func (e *Engine) Energy() float64 {
	return e.energy
}

// Tick advances the simulation one step. A tick for a stale epoch, or one
// arriving after the engine stopped, is dropped and reports false.
func (e *Engine) Tick(epoch uint64) (Event, bool) {
	if epoch != e.epoch || !e.running {
		return EventNone, false
	}
	defer metrics.Timer(metrics.LayoutTick)()

	e.alpha += (0 - e.alpha) * e.cfg.AlphaDecay
	if err := e.applyCharge(); err != nil {
		debug.Log("layout: charge skipped: %v", err)
	}
	e.applyLinks()

	keep := 1 - e.cfg.VelocityDecay
	var sum float64
	for i := range e.nodes {
		n := &e.nodes[i]
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
		sum += n.VX*n.VX + n.VY*n.VY
	}
	e.applyCenter()
	e.energy = sum / float64(len(e.nodes))
	e.ticks++

	if e.ticks >= e.cfg.CooldownTicks || e.alpha < e.cfg.AlphaMin || e.energy < e.cfg.StopEnergy {
		e.running = false
		debug.Log("layout: epoch %d stopped after %d ticks (alpha %.4f, energy %.4f)", e.epoch, e.ticks, e.alpha, e.energy)
		return EventStopped, true
	}
	return EventNone, true
}

// Run ticks until the engine stops and returns the number of ticks run.
func (e *Engine) Run() int {
	epoch := e.epoch
	for {
		ev, ok := e.Tick(epoch)
		if !ok || ev == EventStopped {
			return e.ticks
		}
	}
}

func (e *Engine) applyCharge() error {
	if len(e.nodes) < 2 || e.cfg.ChargeStrength == 0 {
		return nil
	}
	bodies := make([]*body, len(e.nodes))
	particles := make([]barneshut.Particle2, len(e.nodes))
	for i, n := range e.nodes {
		bodies[i] = &body{pos: r2.Vec{X: n.X, Y: n.Y}}
		particles[i] = bodies[i]
	}
	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		return fmt.Errorf("building quadtree: %w", err)
	}

	dmin2 := e.cfg.ChargeDistanceMin * e.cfg.ChargeDistanceMin
	strength := e.cfg.ChargeStrength
	charge := func(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		l := r2.Norm2(v)
		if l == 0 {
			return r2.Vec{}
		}
		if l < dmin2 {
			l = math.Sqrt(dmin2 * l)
		}
		return r2.Scale(strength*m2/l, v)
	}

	for i, b := range bodies {
		f := plane.ForceOn(b, e.cfg.Theta, charge)
		e.nodes[i].VX += f.X * e.alpha
		e.nodes[i].VY += f.Y * e.alpha
	}
	return nil
}

func (e *Engine) applyLinks() {
	for _, s := range e.springs {
		src, dst := &e.nodes[s.src], &e.nodes[s.dst]
		x := dst.X + dst.VX - src.X - src.VX
		y := dst.Y + dst.VY - src.Y - src.VY
		if x == 0 {
			x = e.jiggle()
		}
		if y == 0 {
			y = e.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - e.cfg.LinkDistance) / l * e.alpha * s.strength
		x *= l
		y *= l
		dst.VX -= x * s.bias
		dst.VY -= y * s.bias
		src.VX += x * (1 - s.bias)
		src.VY += y * (1 - s.bias)
	}
}

func (e *Engine) applyCenter() {
	if len(e.nodes) == 0 || e.cfg.CenterStrength == 0 {
		return
	}
	var sx, sy float64
	for _, n := range e.nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx / float64(len(e.nodes)) * e.cfg.CenterStrength
	sy = sy / float64(len(e.nodes)) * e.cfg.CenterStrength
	for i := range e.nodes {
		e.nodes[i].X -= sx
		e.nodes[i].Y -= sy
	}
}

func (e *Engine) jiggle() float64 {
	return (e.rng.Float64() - 0.5) * 1e-6
}

// Positions returns a copy of the current node positions.
func (e *Engine) Positions() []model.Node {
	out := make([]model.Node, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Links returns the links of the seeded graph whose endpoints exist.
func (e *Engine) Links() []model.Link {
	return e.links
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
