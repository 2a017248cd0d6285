package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrDegenerate indicates a mesh that encloses no volume.
	ErrDegenerate = errors.New("geom: mesh encloses no volume")

	// ErrMalformed indicates a geometry file that could not be parsed.
	ErrMalformed = errors.New("geom: malformed geometry file")

	// ErrUnsupportedFormat indicates an unknown geometry file extension.
	ErrUnsupportedFormat = errors.New("geom: unsupported geometry format")
)

// Mesh is a closed triangle surface with optional volumetric tetrahedra.
// Face and tetrahedron indices are zero-based.
type Mesh struct {
	Name     string
	Vertices []mgl64.Vec3
	Faces    [][3]int
	Tets     [][4]int
}

func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:     m.Name,
		Vertices: make([]mgl64.Vec3, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
		Tets:     make([][4]int, len(m.Tets)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	copy(c.Tets, m.Tets)
	return c
}

// Validate checks that every face and tetrahedron references an existing vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	if n == 0 {
		return fmt.Errorf("%w: %q has no vertices", ErrMalformed, m.Name)
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: %q face %d references vertex %d of %d", ErrMalformed, m.Name, i, idx, n)
			}
		}
	}
	for i, t := range m.Tets {
		for _, idx := range t {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: %q tetrahedron %d references vertex %d of %d", ErrMalformed, m.Name, i, idx, n)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned extent of the vertices.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}

// Recenter shifts every vertex by -offset.
func (m *Mesh) Recenter(offset mgl64.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Sub(offset)
	}
}

// orientOutward flips faces whose normal points toward the vertex centroid.
// Only correct for convex meshes, which is all the primitives need.
func (m *Mesh) orientOutward() {
	var c mgl64.Vec3
	for _, v := range m.Vertices {
		c = c.Add(v)
	}
	c = c.Mul(1 / float64(len(m.Vertices)))
	for i, f := range m.Faces {
		a, b, d := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := b.Sub(a).Cross(d.Sub(a))
		if n.Dot(a.Sub(c)) < 0 {
			m.Faces[i] = [3]int{f[0], f[2], f[1]}
		}
	}
}
