package geom

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

var builtins = map[string]func() *Mesh{
	"cube":        func() *Mesh { return Box("cube", mgl64.Vec3{0.5, 0.5, 0.5}) },
	"box_tri":     func() *Mesh { return Box("box_tri", mgl64.Vec3{0.5, 0.5, 0.5}) },
	"plank":       func() *Mesh { return Box("plank", mgl64.Vec3{2, 0.25, 0.5}) },
	"slab":        func() *Mesh { return Box("slab", mgl64.Vec3{10, 0.5, 10}) },
	"tetrahedron": Tetrahedron,
	"octahedron":  Octahedron,
}

// Builtin returns a fresh copy of a named primitive.
func Builtin(name string) (*Mesh, bool) {
	fn, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Box returns an axis-aligned box centred on the origin.
func Box(name string, half mgl64.Vec3) *Mesh {
	x, y, z := half[0], half[1], half[2]
	return &Mesh{
		Name: name,
		Vertices: []mgl64.Vec3{
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
		},
		Faces: [][3]int{
			{0, 3, 2}, {0, 2, 1}, // -z
			{4, 5, 6}, {4, 6, 7}, // +z
			{0, 1, 5}, {0, 5, 4}, // -y
			{3, 7, 6}, {3, 6, 2}, // +y
			{0, 4, 7}, {0, 7, 3}, // -x
			{1, 2, 6}, {1, 6, 5}, // +x
		},
	}
}

func Tetrahedron() *Mesh {
	m := &Mesh{
		Name: "tetrahedron",
		Vertices: []mgl64.Vec3{
			{0.5, 0.5, 0.5}, {0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, 0.5},
		},
		Faces: [][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}},
		Tets:  [][4]int{{0, 1, 2, 3}},
	}
	m.orientOutward()
	return m
}

func Octahedron() *Mesh {
	m := &Mesh{
		Name: "octahedron",
		Vertices: []mgl64.Vec3{
			{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
		},
		Faces: [][3]int{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	}
	m.orientOutward()
	return m
}
