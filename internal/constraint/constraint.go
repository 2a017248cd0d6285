// Package constraint keeps pairs of body vertices within distance bounds by
// projecting positions and velocities, and propagates corrections through
// the graph of constraints that share bodies.
package constraint

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/rigid"
)

// ErrIndexOutOfRange indicates an attachment naming a missing body or vertex.
var ErrIndexOutOfRange = errors.New("constraint: index out of range")

type Kind int

const (
	Equality Kind = iota
	Inequality
)

func (k Kind) String() string {
	switch k {
	case Equality:
		return "equality"
	case Inequality:
		return "inequality"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Attachment names a reference vertex of a body.
type Attachment struct {
	Body   int
	Vertex int
}

// Constraint relates the distance between two attachments to RefValue.
// An Inequality bounds it from above when Upper is set and from below
// otherwise. Inverse masses are captured at construction.
type Constraint struct {
	A, B     Attachment
	InvMassA float64
	InvMassB float64
	RefValue float64
	Kind     Kind
	Upper    bool
	// Bias scales the velocity impulse beyond what zeroes the relative
	// speed along the constraint: 1 reverses it. New, Bounds and the
	// scene loader leave it at zero; callers set it on the value.
	Bias float64
}

func validate(bodies []*rigid.Body, at Attachment) error {
	if at.Body < 0 || at.Body >= len(bodies) {
		return fmt.Errorf("%w: body %d of %d", ErrIndexOutOfRange, at.Body, len(bodies))
	}
	if n := bodies[at.Body].NumVertices(); at.Vertex < 0 || at.Vertex >= n {
		return fmt.Errorf("%w: vertex %d of %d on body %d", ErrIndexOutOfRange, at.Vertex, n, at.Body)
	}
	return nil
}

// New builds a constraint after checking both attachments exist.
func New(bodies []*rigid.Body, a, b Attachment, kind Kind, upper bool, ref float64) (Constraint, error) {
	if err := validate(bodies, a); err != nil {
		return Constraint{}, err
	}
	if err := validate(bodies, b); err != nil {
		return Constraint{}, err
	}
	return Constraint{
		A:        a,
		B:        b,
		InvMassA: bodies[a.Body].InvMass(),
		InvMassB: bodies[b.Body].InvMass(),
		RefValue: ref,
		Kind:     kind,
		Upper:    upper,
	}, nil
}

// Bounds expands one attachment pair into a lower and an upper inequality,
// scaled from the current distance between the attachments.
func Bounds(bodies []*rigid.Body, a, b Attachment, lowerRatio, upperRatio float64) (lower, upper Constraint, err error) {
	if lower, err = New(bodies, a, b, Inequality, false, 0); err != nil {
		return
	}
	initial := lower.Distance(bodies)
	lower.RefValue = lowerRatio * initial

	upper = lower
	upper.Upper = true
	upper.RefValue = upperRatio * initial
	return lower, upper, nil
}

func (c Constraint) Endpoints(bodies []*rigid.Body) (p1, p2 mgl64.Vec3) {
	return bodies[c.A.Body].WorldVertex(c.A.Vertex), bodies[c.B.Body].WorldVertex(c.B.Vertex)
}

func (c Constraint) Distance(bodies []*rigid.Body) float64 {
	p1, p2 := c.Endpoints(bodies)
	return p1.Sub(p2).Len()
}

// Violation is how far the current distance lies outside the allowed range.
func (c Constraint) Violation(bodies []*rigid.Body) float64 {
	d := c.Distance(bodies) - c.RefValue
	switch {
	case c.Kind == Equality:
		return math.Abs(d)
	case c.Upper:
		return math.Max(0, d)
	default:
		return math.Max(0, -d)
	}
}

func (c Constraint) satisfied(length, tolerance float64) bool {
	switch {
	case c.Kind == Equality:
		return math.Abs(length-c.RefValue) <= tolerance
	case c.Upper:
		return length <= c.RefValue+tolerance
	default:
		return length >= c.RefValue-tolerance
	}
}

// ResolvePosition moves both centers of mass along the separation so the
// distance returns to RefValue. It reports whether anything moved.
func (c Constraint) ResolvePosition(bodies []*rigid.Body, tolerance float64) bool {
	p1, p2 := c.Endpoints(bodies)
	d := p1.Sub(p2)
	length := d.Len()
	if c.satisfied(length, tolerance) {
		return false
	}

	total := c.InvMassA + c.InvMassB
	if total == 0 || length < 1e-12 {
		return false
	}
	n := d.Mul(1 / length)
	w1 := c.InvMassA / total
	w2 := c.InvMassB / total
	err := length - c.RefValue

	a, b := bodies[c.A.Body], bodies[c.B.Body]
	a.Translate(n.Mul(-w1 * err))
	b.Translate(n.Mul(w2 * err))
	return true
}

// jacobian returns the separation direction and the angular rows of the
// 12-DOF jacobian [n, r1 x n, -n, -(r2 x n)].
func (c Constraint) jacobian(bodies []*rigid.Body) (n, ang1, ang2 mgl64.Vec3, ok bool) {
	a, b := bodies[c.A.Body], bodies[c.B.Body]
	p1, p2 := c.Endpoints(bodies)
	d := p1.Sub(p2)
	length := d.Len()
	if length < 1e-12 {
		return n, ang1, ang2, false
	}
	n = d.Mul(1 / length)
	ang1 = p1.Sub(a.COM).Cross(n)
	ang2 = p2.Sub(b.COM).Cross(n)
	return n, ang1, ang2, true
}

// RelativeSpeed is J*v, the rate of change of the attachment distance.
func (c Constraint) RelativeSpeed(bodies []*rigid.Body) float64 {
	n, ang1, ang2, ok := c.jacobian(bodies)
	if !ok {
		return 0
	}
	return speed(bodies[c.A.Body], bodies[c.B.Body], n, ang1, ang2)
}

func speed(a, b *rigid.Body, n, ang1, ang2 mgl64.Vec3) float64 {
	return n.Dot(a.Velocity) + ang1.Dot(a.AngularVelocity) -
		n.Dot(b.Velocity) - ang2.Dot(b.AngularVelocity)
}

// ResolveVelocity applies the impulse that cancels the relative speed along
// the constraint. It does nothing when that speed is within tolerance.
func (c Constraint) ResolveVelocity(bodies []*rigid.Body, tolerance float64) bool {
	n, ang1, ang2, ok := c.jacobian(bodies)
	if !ok {
		return false
	}
	a, b := bodies[c.A.Body], bodies[c.B.Body]

	jv := speed(a, b, n, ang1, ang2)
	if math.Abs(jv) <= tolerance {
		return false
	}

	iA := a.WorldInverseInertia()
	iB := b.WorldInverseInertia()
	k := c.InvMassA + c.InvMassB + ang1.Dot(iA.Mul3x1(ang1)) + ang2.Dot(iB.Mul3x1(ang2))
	if k <= 0 {
		return false
	}
	lambda := -(1 + c.Bias) * jv / k

	a.ApplyVelocityChange(n.Mul(c.InvMassA*lambda), iA.Mul3x1(ang1).Mul(lambda))
	b.ApplyVelocityChange(n.Mul(-c.InvMassB*lambda), iB.Mul3x1(ang2).Mul(-lambda))
	return true
}
