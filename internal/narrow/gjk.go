package narrow

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	gjkMaxIterations = 64
	epsilon          = 1e-12
)

// Shape is a convex set given by its support mapping: the point of the set
// furthest along dir. dir need not be normalized.
type Shape interface {
	Support(dir mgl64.Vec3) mgl64.Vec3
}

// Hull is the convex hull of a point set.
type Hull []mgl64.Vec3

func (h Hull) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best, bestDot := h[0], math.Inf(-1)
	for _, p := range h {
		if d := p.Dot(dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

// Contact is the minimum translation between two overlapping shapes.
// Translating B by Depth*Normal brings the surfaces into contact.
type Contact struct {
	Depth  float64
	Normal mgl64.Vec3
	Point  mgl64.Vec3
}

// vertex is a point of the Minkowski difference together with the support
// points on each shape that produced it.
type vertex struct {
	p, a, b mgl64.Vec3
}

func support(a, b Shape, dir mgl64.Vec3) vertex {
	pa := a.Support(dir)
	pb := b.Support(dir.Mul(-1))
	return vertex{p: pa.Sub(pb), a: pa, b: pb}
}

// Collide reports whether a and b overlap with positive depth and, if so,
// the contact. The Contact is undefined when ok is false.
func Collide(a, b Shape) (Contact, bool) {
	s, ok := gjk(a, b)
	if !ok {
		return Contact{}, false
	}
	c := epa(a, b, s)
	if c.Depth <= epsilon {
		return Contact{}, false
	}
	return c, true
}

// Intersects runs only the boolean GJK test.
func Intersects(a, b Shape) bool {
	_, ok := gjk(a, b)
	return ok
}

// gjk returns a tetrahedron enclosing the origin when the shapes overlap.
// The most recently added point is kept at index 0.
func gjk(a, b Shape) ([]vertex, bool) {
	first := support(a, b, mgl64.Vec3{1, 0, 0})
	s := []vertex{first}
	dir := first.p.Mul(-1)

	for i := 0; i < gjkMaxIterations; i++ {
		if dir.LenSqr() < epsilon {
			// origin lies on the current simplex
			return complete(a, b, s)
		}

		v := support(a, b, dir)
		if v.p.Dot(dir) <= 0 {
			return nil, false
		}

		s = append([]vertex{v}, s...)
		if next(&s, &dir) {
			return s, true
		}
	}
	return nil, false
}

func next(s *[]vertex, dir *mgl64.Vec3) bool {
	switch len(*s) {
	case 2:
		return line(s, dir)
	case 3:
		return triangle(s, dir)
	case 4:
		return tetrahedron(s, dir)
	}
	return false
}

func tripleCross(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return a.Cross(b).Cross(c)
}

func line(s *[]vertex, dir *mgl64.Vec3) bool {
	a, b := (*s)[0], (*s)[1]
	ab := b.p.Sub(a.p)
	ao := a.p.Mul(-1)

	if ab.Dot(ao) > 0 {
		*dir = tripleCross(ab, ao, ab)
	} else {
		*s = []vertex{a}
		*dir = ao
	}
	return false
}

func triangle(s *[]vertex, dir *mgl64.Vec3) bool {
	a, b, c := (*s)[0], (*s)[1], (*s)[2]
	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ao := a.p.Mul(-1)
	abc := ab.Cross(ac)

	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			*s = []vertex{a, c}
			*dir = tripleCross(ac, ao, ac)
			return false
		}
		*s = []vertex{a, b}
		return line(s, dir)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		*s = []vertex{a, b}
		return line(s, dir)
	}

	if abc.Dot(ao) > 0 {
		*dir = abc
	} else {
		*s = []vertex{a, c, b}
		*dir = abc.Mul(-1)
	}
	return false
}

func tetrahedron(s *[]vertex, dir *mgl64.Vec3) bool {
	a, b, c, d := (*s)[0], (*s)[1], (*s)[2], (*s)[3]
	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ad := d.p.Sub(a.p)
	ao := a.p.Mul(-1)

	if ab.Cross(ac).Dot(ao) > 0 {
		*s = []vertex{a, b, c}
		return triangle(s, dir)
	}
	if ac.Cross(ad).Dot(ao) > 0 {
		*s = []vertex{a, c, d}
		return triangle(s, dir)
	}
	if ad.Cross(ab).Dot(ao) > 0 {
		*s = []vertex{a, d, b}
		return triangle(s, dir)
	}
	return true
}

var probes = []mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// complete grows a simplex that touches the origin into a tetrahedron of
// non-zero volume, so EPA has a polytope to expand. It fails when the
// Minkowski difference is flat.
func complete(a, b Shape, s []vertex) ([]vertex, bool) {
	for len(s) < 4 {
		grown := false
		dirs := probes
		if len(s) == 3 {
			n := s[1].p.Sub(s[0].p).Cross(s[2].p.Sub(s[0].p))
			dirs = append([]mgl64.Vec3{n, n.Mul(-1)}, probes...)
		}
		for _, d := range dirs {
			v := support(a, b, d)
			if independent(s, v.p) {
				s = append(s, v)
				grown = true
				break
			}
		}
		if !grown {
			return nil, false
		}
	}
	return s, true
}

// independent reports whether p is affinely independent of the simplex.
func independent(s []vertex, p mgl64.Vec3) bool {
	const tol = 1e-10
	switch len(s) {
	case 1:
		return p.Sub(s[0].p).LenSqr() > tol
	case 2:
		return s[1].p.Sub(s[0].p).Cross(p.Sub(s[0].p)).LenSqr() > tol
	case 3:
		n := s[1].p.Sub(s[0].p).Cross(s[2].p.Sub(s[0].p))
		return math.Abs(n.Dot(p.Sub(s[0].p))) > tol
	}
	return false
}
