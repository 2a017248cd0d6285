// Package collision applies pairwise impulse-based contact response between
// rigid bodies and against an implicit ground plane at height zero.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
)

// Result describes what a single resolution did.
type Result struct {
	// Impulse is the signed impulse magnitude along the normal.
	Impulse float64
	// Applied is false only when neither body can respond, that is both
	// are fixed or the effective mass is degenerate.
	Applied bool
}

// weights splits a positional correction between two bodies in proportion
// to their inverse masses. A fixed body takes none of it.
func weights(a, b *rigid.Body) (w1, w2 float64) {
	switch {
	case a.Fixed():
		return 0, 1
	case b.Fixed():
		return 1, 0
	}
	invA, invB := a.InvMass(), b.InvMass()
	w1 = invA / (invA + invB)
	return w1, 1 - w1
}

// Resolve separates a and b along normal by depth and applies a restitution
// impulse at the contact. The impulse is applied whatever the sign of the
// relative normal velocity. For body pairs, normal points from a toward b and
// point lies on b, matching rigid.Body.TestCollision. The ground call uses
// a negative depth with the normal pointing up out of the ground instead;
// both conventions move a by -w1*depth*normal. Neither body moves when both
// are fixed.
func Resolve(a, b *rigid.Body, depth float64, normal, point mgl64.Vec3, restitution float64) Result {
	if a.Fixed() && b.Fixed() {
		return Result{}
	}

	w1, w2 := weights(a, b)
	a.Translate(normal.Mul(-w1 * depth))
	b.Translate(normal.Mul(w2 * depth))

	p := point.Add(normal.Mul(w2 * depth))
	rA := p.Sub(a.COM)
	rB := p.Sub(b.COM)

	iA := a.WorldInverseInertia()
	iB := b.WorldInverseInertia()

	raN := rA.Cross(normal)
	rbN := rB.Cross(normal)
	denom := a.InvMass() + b.InvMass() +
		raN.Dot(iA.Mul3x1(raN)) +
		rbN.Dot(iB.Mul3x1(rbN))
	if denom <= 0 {
		return Result{}
	}

	vRel := a.PointVelocity(p).Sub(b.PointVelocity(p))
	j := -(1 + restitution) * vRel.Dot(normal) / denom

	impulse := normal.Mul(j)
	a.ApplyVelocityChange(impulse.Mul(a.InvMass()), iA.Mul3x1(rA.Cross(impulse)))
	b.ApplyVelocityChange(impulse.Mul(-b.InvMass()), iB.Mul3x1(rB.Cross(impulse)).Mul(-1))
	return Result{Impulse: j, Applied: true}
}

// Up is the ground normal.
var Up = mgl64.Vec3{0, 1, 0}

const groundHalf = 1000.0

// NewGround returns the immovable body standing in for the plane y = 0.
// Only its fixedness matters to Resolve; its shape is never tested.
func NewGround() *rigid.Body {
	m := geom.Box("ground", mgl64.Vec3{groundHalf, groundHalf, groundHalf})
	g, err := rigid.New(m, 1, true, mgl64.Vec3{0, -groundHalf, 0}, mgl64.QuatIdent())
	if err != nil {
		panic(err)
	}
	return g
}

// ResolveGround lifts b out of the ground when its lowest vertex is at or
// below zero height. Only that single vertex is considered.
func ResolveGround(b, ground *rigid.Body, restitution float64) (Result, bool) {
	if b.Fixed() {
		return Result{}, false
	}
	_, v := b.LowestVertex()
	if v.Y() > 0 {
		return Result{}, false
	}
	return Resolve(b, ground, v.Y(), Up, v, restitution), true
}
