package rigid

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/geom"
)

var (
	// ErrInvalidDensity indicates a non-positive or non-finite density.
	ErrInvalidDensity = errors.New("rigid: density must be positive")

	// ErrInvalidOrientation indicates a quaternion that cannot be normalized.
	ErrInvalidOrientation = errors.New("rigid: orientation has zero norm")
)

// Body is a rigid body. Kinematic fields are exported for the resolvers;
// geometry and mass properties are fixed at construction.
type Body struct {
	Name string

	COM             mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	fixed      bool
	mass       float64
	invMass    float64
	inertia    mgl64.Mat3
	invInertia mgl64.Mat3

	refs  []mgl64.Vec3
	faces [][3]int
	world []mgl64.Vec3
}

// New builds a body from a mesh placed with its center of mass at com.
// The mesh is copied and recentred; orientation is normalized.
func New(m *geom.Mesh, density float64, fixed bool, com mgl64.Vec3, q mgl64.Quat) (*Body, error) {
	if density <= 0 || math.IsNaN(density) || math.IsInf(density, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidDensity, density)
	}
	if q.Len() < 1e-12 {
		return nil, ErrInvalidOrientation
	}

	props, err := geom.ComputeMass(m, density)
	if err != nil {
		return nil, err
	}

	local := m.Clone()
	local.Recenter(props.Center)

	b := &Body{
		Name:        m.Name,
		COM:         com,
		Orientation: q.Normalize(),
		fixed:       fixed,
		mass:        props.Mass,
		inertia:     props.Inertia,
		refs:        local.Vertices,
		faces:       local.Faces,
		world:       make([]mgl64.Vec3, len(local.Vertices)),
	}
	if !fixed {
		b.invMass = 1 / props.Mass
		b.invInertia = props.Inertia.Inv()
	}
	b.Refresh()
	return b, nil
}

func (b *Body) Fixed() bool                { return b.fixed }
func (b *Body) Mass() float64              { return b.mass }
func (b *Body) InvMass() float64           { return b.invMass }
func (b *Body) NumVertices() int           { return len(b.refs) }
func (b *Body) Faces() [][3]int            { return b.faces }
func (b *Body) RefVertex(i int) mgl64.Vec3 { return b.refs[i] }

// Rotation returns the orientation as a rotation matrix.
func (b *Body) Rotation() mgl64.Mat3 {
	return b.Orientation.Mat4().Mat3()
}

// WorldInverseInertia returns R * I^-1 * R^T for the current orientation.
func (b *Body) WorldInverseInertia() mgl64.Mat3 {
	if b.fixed {
		return mgl64.Mat3{}
	}
	r := b.Rotation()
	return r.Mul3(b.invInertia).Mul3(r.Transpose())
}

// Integrate advances the body by dt under a uniform acceleration:
// semi-implicit Euler for position, first-order quaternion update for
// orientation.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec3) {
	if b.fixed {
		return
	}

	b.Velocity = b.Velocity.Add(gravity.Mul(dt))
	b.COM = b.COM.Add(b.Velocity.Mul(dt))

	w := mgl64.Quat{W: 0, V: b.AngularVelocity}
	dq := w.Mul(b.Orientation).Scale(0.5 * dt)
	b.Orientation = b.Orientation.Add(dq).Normalize()
}

// WorldVertex transforms reference vertex i by the current pose.
func (b *Body) WorldVertex(i int) mgl64.Vec3 {
	return b.Orientation.Rotate(b.refs[i]).Add(b.COM)
}

// WorldVertices returns the cached buffer as of the last Refresh.
func (b *Body) WorldVertices() []mgl64.Vec3 {
	return b.world
}

func (b *Body) Refresh() {
	for i := range b.refs {
		b.world[i] = b.WorldVertex(i)
	}
}

// LowestVertex returns the index and world position of the vertex with the
// smallest height under the current pose. The first such vertex wins ties.
func (b *Body) LowestVertex() (int, mgl64.Vec3) {
	best := 0
	lowest := b.WorldVertex(0)
	for i := 1; i < len(b.refs); i++ {
		if v := b.WorldVertex(i); v.Y() < lowest.Y() {
			best, lowest = i, v
		}
	}
	return best, lowest
}

// Translate moves the center of mass. Fixed bodies ignore it.
func (b *Body) Translate(d mgl64.Vec3) {
	if b.fixed {
		return
	}
	b.COM = b.COM.Add(d)
}

// ApplyVelocityChange adds dv and dw to the linear and angular velocity.
// Fixed bodies ignore it.
func (b *Body) ApplyVelocityChange(dv, dw mgl64.Vec3) {
	if b.fixed {
		return
	}
	b.Velocity = b.Velocity.Add(dv)
	b.AngularVelocity = b.AngularVelocity.Add(dw)
}

// PointVelocity is the velocity of the material point currently at p.
func (b *Body) PointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(p.Sub(b.COM)))
}

func (b *Body) KineticEnergy() float64 {
	if b.fixed {
		return 0
	}
	linear := 0.5 * b.mass * b.Velocity.LenSqr()

	r := b.Rotation()
	world := r.Mul3(b.inertia).Mul3(r.Transpose())
	angular := 0.5 * b.AngularVelocity.Dot(world.Mul3x1(b.AngularVelocity))
	return linear + angular
}

// PotentialEnergy is the gravitational potential relative to the origin.
func (b *Body) PotentialEnergy(gravity mgl64.Vec3) float64 {
	if b.fixed {
		return 0
	}
	return -b.mass * gravity.Dot(b.COM)
}

func (b *Body) Momentum() mgl64.Vec3 {
	if b.fixed {
		return mgl64.Vec3{}
	}
	return b.Velocity.Mul(b.mass)
}

// State is a copy of the kinematic state of a body.
type State struct {
	COM             mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

func (b *Body) State() State {
	return State{
		COM:             b.COM,
		Orientation:     b.Orientation,
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
	}
}

// SetState restores a snapshot and refreshes the vertex cache.
func (b *Body) SetState(s State) {
	b.COM = s.COM
	b.Orientation = s.Orientation
	b.Velocity = s.Velocity
	b.AngularVelocity = s.AngularVelocity
	b.Refresh()
}

// IsValid reports whether every kinematic component is finite.
func (s State) IsValid() bool {
	vals := []float64{s.Orientation.W}
	for _, v := range []mgl64.Vec3{s.COM, s.Orientation.V, s.Velocity, s.AngularVelocity} {
		vals = append(vals, v[:]...)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
