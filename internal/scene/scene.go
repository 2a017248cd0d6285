package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/rigid"
)

// Options are fixed for the lifetime of a scene.
type Options struct {
	Gravity   mgl64.Vec3
	CellScale float64
	MaxDepth  int
}

func DefaultOptions() Options {
	return Options{
		Gravity:   mgl64.Vec3{0, -9.8, 0},
		CellScale: broadphase.DefaultCellScale,
		MaxDepth:  1,
	}
}

type Scene struct {
	opts        Options
	bodies      []*rigid.Body
	constraints []constraint.Constraint
	ground      *rigid.Body
	grid        *broadphase.Grid
	graph       constraint.Graph

	time  float64
	faces [][3]int
}

// StepStats summarizes the work done by one Step.
type StepStats struct {
	Candidates     int
	Contacts       int
	Impulses       int
	GroundContacts int
	Constraints    constraint.Report
}

// New assembles a scene and freezes the broad-phase cell size from the
// bodies' current extents.
func New(bodies []*rigid.Body, constraints []constraint.Constraint, opts Options) *Scene {
	s := &Scene{
		opts:        opts,
		bodies:      bodies,
		constraints: constraints,
		ground:      collision.NewGround(),
		grid:        broadphase.New(opts.CellScale),
		graph:       constraint.Graph{MaxDepth: opts.MaxDepth},
	}
	broadphase.Init(s.grid, bodies)

	base := 0
	for _, b := range bodies {
		for _, f := range b.Faces() {
			s.faces = append(s.faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
		}
		base += b.NumVertices()
	}
	return s
}

func (s *Scene) Options() Options                     { return s.opts }
func (s *Scene) Bodies() []*rigid.Body                { return s.bodies }
func (s *Scene) Constraints() []constraint.Constraint { return s.constraints }
func (s *Scene) Time() float64                        { return s.time }
func (s *Scene) CellSize() float64                    { return s.grid.CellSize() }

// Step advances the scene by dt. It mutates only body kinematic state and
// the clock.
func (s *Scene) Step(dt, restitution, tolerance float64) StepStats {
	var st StepStats

	for _, b := range s.bodies {
		b.Integrate(dt, s.opts.Gravity)
	}

	broadphase.Build(s.grid, s.bodies)
	pairs := s.grid.Pairs()
	st.Candidates = len(pairs)
	for _, p := range pairs {
		a, b := s.bodies[p.A], s.bodies[p.B]
		c, ok := a.TestCollision(b)
		if !ok {
			continue
		}
		st.Contacts++
		if collision.Resolve(a, b, c.Depth, c.Normal, c.Point, restitution).Applied {
			st.Impulses++
		}
	}

	for _, b := range s.bodies {
		if _, hit := collision.ResolveGround(b, s.ground, restitution); hit {
			st.GroundContacts++
		}
	}

	s.graph.Tolerance = tolerance
	st.Constraints = s.graph.ResolveAll(s.bodies, s.constraints)

	s.time += dt

	for _, b := range s.bodies {
		b.Refresh()
	}
	return st
}

// VertexBuffer concatenates every body's world vertices in body order.
func (s *Scene) VertexBuffer() []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, b := range s.bodies {
		out = append(out, b.WorldVertices()...)
	}
	return out
}

// Faces indexes into VertexBuffer.
func (s *Scene) Faces() [][3]int {
	return s.faces
}

// ConstraintLines returns one segment per constraint between its two
// attachment points as of the last refresh.
func (s *Scene) ConstraintLines() [][2]mgl64.Vec3 {
	out := make([][2]mgl64.Vec3, len(s.constraints))
	for i, c := range s.constraints {
		out[i] = [2]mgl64.Vec3{
			s.bodies[c.A.Body].WorldVertices()[c.A.Vertex],
			s.bodies[c.B.Body].WorldVertices()[c.B.Vertex],
		}
	}
	return out
}

// Snapshot captures the clock and the kinematic state of every body.
type Snapshot struct {
	Time   float64
	States []rigid.State
}

func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{Time: s.time, States: make([]rigid.State, len(s.bodies))}
	for i, b := range s.bodies {
		snap.States[i] = b.State()
	}
	return snap
}

// Restore rewinds to a snapshot taken from this scene.
func (s *Scene) Restore(snap Snapshot) {
	s.time = snap.Time
	for i, st := range snap.States {
		if i < len(s.bodies) {
			s.bodies[i].SetState(st)
		}
	}
}
