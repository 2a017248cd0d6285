package experiment

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
)

const (
	stressSpacing = 30.0
	stressDensity = 250.0
)

// Box vertex indices used as chain attachments.
const (
	bottomLeft  = 0
	topLeft     = 3
	bottomRight = 5
	topRight    = 6
)

func cube(name string, density float64, fixed bool, com mgl64.Vec3, q mgl64.Quat) (*rigid.Body, error) {
	m, _ := geom.Builtin("cube")
	b, err := rigid.New(m, density, fixed, com, q)
	if err != nil {
		return nil, err
	}
	b.Name = name
	return b, nil
}

func Drop(opts scene.Options, _ int) (*scene.Scene, error) {
	q := mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 1}.Normalize())
	b, err := cube("cube", 1, false, mgl64.Vec3{0, 3, 0}, q)
	if err != nil {
		return nil, err
	}
	return scene.New([]*rigid.Body{b}, nil, opts), nil
}

// Stack places n unit cubes on top of each other with a small gap and a
// slight horizontal offset so the column is not perfectly balanced.
func Stack(opts scene.Options, n int) (*scene.Scene, error) {
	bodies := make([]*rigid.Body, 0, n)
	for i := 0; i < n; i++ {
		com := mgl64.Vec3{0.05 * float64(i%2), 0.55 + 1.1*float64(i), 0}
		b, err := cube("block", 1, false, com, mgl64.QuatIdent())
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	return scene.New(bodies, nil, opts), nil
}

// Chain hangs n cubes below a fixed anchor. Each link ties two bottom
// corners of the upper cube to the matching top corners of the one below,
// bounded to within 10% of the initial gap. The lowest cube starts with a
// sideways kick.
func Chain(opts scene.Options, n int) (*scene.Scene, error) {
	top := 1.5*float64(n) + 2
	anchor, err := cube("anchor", 1, true, mgl64.Vec3{0, top, 0}, mgl64.QuatIdent())
	if err != nil {
		return nil, err
	}

	bodies := []*rigid.Body{anchor}
	for i := 1; i <= n; i++ {
		b, err := cube("link", 1, false, mgl64.Vec3{0, top - 1.5*float64(i), 0}, mgl64.QuatIdent())
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	bodies[n].Velocity = mgl64.Vec3{2, 0, 0}

	var cs []constraint.Constraint
	for i := 1; i <= n; i++ {
		for _, pair := range [][2]int{{bottomLeft, topLeft}, {bottomRight, topRight}} {
			lower, upper, err := constraint.Bounds(bodies,
				constraint.Attachment{Body: i - 1, Vertex: pair[0]},
				constraint.Attachment{Body: i, Vertex: pair[1]},
				0.9, 1.1)
			if err != nil {
				return nil, err
			}
			cs = append(cs, lower, upper)
		}
	}
	return scene.New(bodies, cs, opts), nil
}

func Collide(opts scene.Options, _ int) (*scene.Scene, error) {
	a, err := cube("left", 1, false, mgl64.Vec3{-2, 4, 0}, mgl64.QuatIdent())
	if err != nil {
		return nil, err
	}
	b, err := cube("right", 1, false, mgl64.Vec3{2, 4, 0.3}, mgl64.QuatIdent())
	if err != nil {
		return nil, err
	}
	a.Velocity = mgl64.Vec3{4, 0, 0}
	b.Velocity = mgl64.Vec3{-4, 0, 0}
	return scene.New([]*rigid.Body{a, b}, nil, opts), nil
}

// Stress lays out n^3 heavy cubes on a sparse lattice, all sharing one
// skewed orientation.
func Stress(opts scene.Options, n int) (*scene.Scene, error) {
	q := mgl64.Quat{W: 0.1, V: mgl64.Vec3{1, 1, 1}}.Normalize()
	bodies := make([]*rigid.Body, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				com := mgl64.Vec3{float64(x), float64(y), float64(z)}.Mul(stressSpacing)
				b, err := cube("box_tri", stressDensity, false, com, q)
				if err != nil {
					return nil, err
				}
				bodies = append(bodies, b)
			}
		}
	}
	return scene.New(bodies, nil, opts), nil
}
