package geom

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeMass_Cube(t *testing.T) {
	m, _ := Builtin("cube")
	props, err := ComputeMass(m, 1)
	if err != nil {
		t.Fatal(err)
	}

	if !near(props.Volume, 1) {
		t.Errorf("expected volume 1, got %f", props.Volume)
	}
	if !near(props.Mass, 1) {
		t.Errorf("expected mass 1, got %f", props.Mass)
	}
	if props.Center.Len() > 1e-9 {
		t.Errorf("expected center at origin, got %v", props.Center)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0 / 6.0
			}
			if !near(props.Inertia.At(i, j), want) {
				t.Errorf("inertia[%d][%d]: expected %f, got %f", i, j, want, props.Inertia.At(i, j))
			}
		}
	}
}

func TestComputeMass_Translated(t *testing.T) {
	m := Box("box", mgl64.Vec3{1, 0.5, 0.25})
	offset := mgl64.Vec3{3, -2, 7}
	m.Recenter(offset.Mul(-1))

	props, err := ComputeMass(m, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !props.Center.ApproxEqualThreshold(offset, 1e-9) {
		t.Errorf("expected center %v, got %v", offset, props.Center)
	}

	// solid box: I_xx = m/12 (h^2 + d^2) with full extents 2, 1, 0.5
	mass := 2.0 * 2 * 1 * 0.5
	want := []float64{
		mass / 12 * (1 + 0.25),
		mass / 12 * (4 + 0.25),
		mass / 12 * (4 + 1),
	}
	for k, w := range want {
		if !near(props.Inertia.At(k, k), w) {
			t.Errorf("axis %d: expected %f, got %f", k, w, props.Inertia.At(k, k))
		}
	}
}

func TestComputeMass_InwardWinding(t *testing.T) {
	m, _ := Builtin("cube")
	for i, f := range m.Faces {
		m.Faces[i] = [3]int{f[0], f[2], f[1]}
	}
	props, err := ComputeMass(m, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !near(props.Volume, 1) {
		t.Errorf("expected volume 1, got %f", props.Volume)
	}
}

func TestComputeMass_TetsMatchSurface(t *testing.T) {
	withTets := Tetrahedron()
	surface := Tetrahedron()
	surface.Tets = nil

	a, err := ComputeMass(withTets, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeMass(surface, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !near(a.Mass, b.Mass) {
		t.Errorf("mass mismatch: %f vs %f", a.Mass, b.Mass)
	}
	for i := range a.Inertia {
		if !near(a.Inertia[i], b.Inertia[i]) {
			t.Errorf("inertia mismatch at %d:\n%v\n%v", i, a.Inertia, b.Inertia)
			break
		}
	}
}

func TestComputeMass_Degenerate(t *testing.T) {
	m := &Mesh{
		Name:     "flat",
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 1}},
	}
	_, err := ComputeMass(m, 1)
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("expected ErrDegenerate, got %v", err)
	}
}

func TestBuiltins_Valid(t *testing.T) {
	for _, name := range BuiltinNames() {
		m, ok := Builtin(name)
		if !ok {
			t.Fatalf("builtin %s missing", name)
		}
		if err := m.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if _, err := ComputeMass(m, 1); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

const tetOFF = `OFF
# regular tetrahedron
4 4 6
1 1 1
1 -1 -1
-1 1 -1
-1 -1 1
3 0 1 2
3 0 3 1
3 0 2 3
3 1 3 2
`

func TestReadOFF(t *testing.T) {
	m, err := ReadOFF(strings.NewReader(tetOFF))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 4 || len(m.Faces) != 4 {
		t.Fatalf("expected 4 vertices and 4 faces, got %d and %d", len(m.Vertices), len(m.Faces))
	}
	if m.Vertices[1] != (mgl64.Vec3{1, -1, -1}) {
		t.Errorf("unexpected vertex %v", m.Vertices[1])
	}
}

func TestReadOFF_FansPolygons(t *testing.T) {
	src := "OFF\n4 1 0\n0 0 0\n1 0 0\n1 1 0\n0 1 0\n4 0 1 2 3\n"
	m, err := ReadOFF(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 2 {
		t.Fatalf("expected quad split into 2 triangles, got %d", len(m.Faces))
	}
	if m.Faces[1] != [3]int{0, 2, 3} {
		t.Errorf("unexpected second triangle %v", m.Faces[1])
	}
}

func TestReadOFF_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no header", "4 4 6\n"},
		{"truncated", "OFF\n4 4 6\n1 1 1\n"},
		{"bad number", "OFF\n1 0 0\n1 x 1\n"},
		{"huge vertex count", "OFF\n9223372036854775807 0 0\n0 0 0\n"},
		{"huge corner count", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n9223372036854775807 0 1 2\n"},
	}

	for _, tt := range tests {
		_, err := ReadOFF(strings.NewReader(tt.src))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
		}
	}
}

const tetMESH = `MeshVersionFormatted 1
Dimension 3
Vertices
4
1 1 1 0
1 -1 -1 0
-1 1 -1 0
-1 -1 1 0
Tetrahedra
1
1 2 3 4 0
Triangles
4
1 2 3 0
1 4 2 0
1 3 4 0
2 4 3 0
End
`

func TestReadMESH(t *testing.T) {
	m, err := ReadMESH(strings.NewReader(tetMESH))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tets) != 1 || m.Tets[0] != [4]int{0, 1, 2, 3} {
		t.Errorf("unexpected tetrahedra %v", m.Tets)
	}
	if len(m.Faces) != 4 || m.Faces[3] != [3]int{1, 3, 2} {
		t.Errorf("unexpected faces %v", m.Faces)
	}

	props, err := ComputeMass(m, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !near(props.Volume, 8.0/3.0) {
		t.Errorf("expected volume 8/3, got %f", props.Volume)
	}
}

func TestReadMESH_BadCounts(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"huge vertex count", "Vertices\n9223372036854775807\n0 0 0 0\n"},
		{"huge triangle count", "Vertices\n1\n0 0 0 0\nTriangles\n9223372036854775807\n1 1 1 0\n"},
		{"negative vertex count", "Vertices\n-1\nEnd\n"},
		{"negative triangle count", "Triangles\n-4\nEnd\n"},
	}

	for _, tt := range tests {
		_, err := ReadMESH(strings.NewReader(tt.src))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
		}
	}
}

func TestReadMESH_UnknownSection(t *testing.T) {
	_, err := ReadMESH(strings.NewReader("MeshVersionFormatted 1\nCorners\n0\nEnd\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tet.off"), []byte(tetOFF), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shape.obj"), []byte("v 0 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewDirLoader(dir)

	m, err := l.Load("tet.off")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "tet.off" {
		t.Errorf("expected name tet.off, got %s", m.Name)
	}

	// cached copies must not alias
	m.Vertices[0] = mgl64.Vec3{9, 9, 9}
	again, _ := l.Load("tet.off")
	if again.Vertices[0] == m.Vertices[0] {
		t.Error("cached mesh was mutated through a returned copy")
	}

	if _, err := l.Load("cube.off"); err != nil {
		t.Errorf("expected builtin fallback for cube.off, got %v", err)
	}
	if _, err := l.Load("missing.off"); err == nil {
		t.Error("expected error for missing mesh")
	}
	if _, err := l.Load("shape.obj"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
