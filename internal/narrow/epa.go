package narrow

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	epaMaxIterations = 64
	epaTolerance     = 1e-9
)

type face struct {
	idx      [3]int
	normal   mgl64.Vec3
	distance float64
}

type edge [2]int

type polytope struct {
	verts    []vertex
	faces    []face
	interior mgl64.Vec3
}

// newFace winds (i, j, k) so the normal points away from the interior point.
func (pt *polytope) newFace(i, j, k int) face {
	a, b, c := pt.verts[i].p, pt.verts[j].p, pt.verts[k].p
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Dot(a.Sub(pt.interior)) < 0 {
		j, k = k, j
		n = n.Mul(-1)
	}

	l := n.Len()
	if l < epsilon {
		return face{idx: [3]int{i, j, k}, distance: math.Inf(1)}
	}
	n = n.Mul(1 / l)
	return face{idx: [3]int{i, j, k}, normal: n, distance: n.Dot(a)}
}

func (pt *polytope) closest() int {
	best := 0
	for i, f := range pt.faces {
		if f.distance < pt.faces[best].distance {
			best = i
		}
	}
	return best
}

// expand adds v and replaces every face that can see it with a fan from the
// horizon edges to v.
func (pt *polytope) expand(v vertex) {
	pt.verts = append(pt.verts, v)
	vi := len(pt.verts) - 1

	var horizon []edge
	kept := pt.faces[:0]
	for _, f := range pt.faces {
		if f.normal.Dot(v.p.Sub(pt.verts[f.idx[0]].p)) > 0 {
			for k := 0; k < 3; k++ {
				horizon = toggleEdge(horizon, edge{f.idx[k], f.idx[(k+1)%3]})
			}
			continue
		}
		kept = append(kept, f)
	}
	pt.faces = kept

	for _, e := range horizon {
		pt.faces = append(pt.faces, pt.newFace(e[0], e[1], vi))
	}
}

// toggleEdge adds e unless its reverse is already present, in which case the
// shared edge is interior to the removed region and both are dropped.
func toggleEdge(edges []edge, e edge) []edge {
	for i, o := range edges {
		if o[0] == e[1] && o[1] == e[0] {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

// epa expands the GJK tetrahedron toward the boundary of the Minkowski
// difference closest to the origin.
func epa(a, b Shape, s []vertex) Contact {
	pt := &polytope{verts: append([]vertex(nil), s...)}
	for _, v := range s {
		pt.interior = pt.interior.Add(v.p)
	}
	pt.interior = pt.interior.Mul(0.25)

	pt.faces = []face{
		pt.newFace(0, 1, 2),
		pt.newFace(0, 3, 1),
		pt.newFace(0, 2, 3),
		pt.newFace(1, 3, 2),
	}

	var f face
	for i := 0; i < epaMaxIterations; i++ {
		f = pt.faces[pt.closest()]
		if math.IsInf(f.distance, 1) {
			break
		}

		v := support(a, b, f.normal)
		if v.p.Dot(f.normal)-f.distance < epaTolerance {
			break
		}
		pt.expand(v)
		if len(pt.faces) == 0 {
			break
		}
	}

	return pt.contact(f)
}

// contact projects the origin onto f and maps its barycentric coordinates
// onto the support points of B.
func (pt *polytope) contact(f face) Contact {
	if math.IsInf(f.distance, 1) {
		return Contact{}
	}

	v0, v1, v2 := pt.verts[f.idx[0]], pt.verts[f.idx[1]], pt.verts[f.idx[2]]
	u, v, w := barycentric(f.normal.Mul(f.distance), v0.p, v1.p, v2.p)

	point := v0.b.Mul(u).Add(v1.b.Mul(v)).Add(v2.b.Mul(w))
	return Contact{
		Depth:  math.Max(f.distance, 0),
		Normal: f.normal,
		Point:  point,
	}
}

func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	den := d00*d11 - d01*d01
	if math.Abs(den) < epsilon {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / den
	w := (d00*d21 - d01*d20) / den
	return 1 - v - w, v, w
}
