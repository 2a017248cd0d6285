package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	minPitch = -1.5
	maxPitch = 1.5
)

// Camera orbits a target point. Yaw turns about the world y axis and pitch
// tilts above or below the horizon.
type Camera struct {
	Target     mgl64.Vec3
	Distance   float64
	Yaw, Pitch float64
	FOV        float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 10, Pitch: 0.3, FOV: math.Pi / 4, Zoom: 1}
}

// Fit aims the camera at the centre of the box and backs off far enough to
// see all of it.
func (c *Camera) Fit(lo, hi mgl64.Vec3) {
	c.Target = lo.Add(hi).Mul(0.5)
	radius := math.Max(hi.Sub(lo).Len()/2, 1)
	c.Distance = radius / math.Sin(c.FOV/2) * 1.1
	c.Zoom = 1
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, minPitch, maxPitch)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) Eye() mgl64.Vec3 {
	d := c.Distance / c.Zoom
	offset := mgl64.Vec3{
		d * math.Cos(c.Pitch) * math.Sin(c.Yaw),
		d * math.Sin(c.Pitch),
		d * math.Cos(c.Pitch) * math.Cos(c.Yaw),
	}
	return c.Target.Add(offset)
}

// Matrix is the combined projection and view transform for a sw x sh
// viewport.
func (c *Camera) Matrix(sw, sh int) mgl64.Mat4 {
	aspect := float64(sw) / float64(max(sh, 1))
	proj := mgl64.Perspective(c.FOV, aspect, 0.05, 1e4)
	view := mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

// project maps a world point to pixel coordinates. ok is false behind the
// camera.
func project(m mgl64.Mat4, p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	clip := m.Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-9 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = int((ndc.X() + 1) / 2 * float64(sw))
	y = int((1 - ndc.Y()) / 2 * float64(sh))
	return x, y, ndc.Z(), true
}

func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	return project(c.Matrix(sw, sh), p, sw, sh)
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }
func (w *Wireframe) Append(o *Wireframe)     { w.Edges = append(w.Edges, o.Edges...) }
func (w *Wireframe) Len() int                { return len(w.Edges) }

// AddMesh adds every triangle edge once, however many faces share it.
func (w *Wireframe) AddMesh(vertices []mgl64.Vec3, faces [][3]int) {
	seen := make(map[[2]int]bool, len(faces)*3/2)
	for _, f := range faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			if seen[[2]int{a, b}] {
				continue
			}
			seen[[2]int{a, b}] = true
			w.AddEdge(vertices[a], vertices[b])
		}
	}
}

// GroundGrid is a square grid on y=0 centred below center.
func GroundGrid(center mgl64.Vec3, half float64, lines int) *Wireframe {
	w := NewWireframe()
	if lines < 2 {
		lines = 2
	}
	cx, cz := center.X(), center.Z()
	step := 2 * half / float64(lines-1)
	for i := 0; i < lines; i++ {
		o := -half + float64(i)*step
		w.AddEdge(mgl64.Vec3{cx + o, 0, cz - half}, mgl64.Vec3{cx + o, 0, cz + half})
		w.AddEdge(mgl64.Vec3{cx - half, 0, cz + o}, mgl64.Vec3{cx + half, 0, cz + o})
	}
	return w
}

// Render3D draws the wireframe onto the canvas. Edges with either end
// behind the camera are skipped.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) int {
	if c == nil || w == nil || cam == nil {
		return 0
	}
	sw, sh := c.PixelWidth(), c.PixelHeight()
	m := cam.Matrix(sw, sh)

	drawn := 0
	for _, e := range w.Edges {
		x1, y1, _, v1 := project(m, e.Start, sw, sh)
		x2, y2, _, v2 := project(m, e.End, sw, sh)
		if !v1 || !v2 {
			continue
		}
		if x1 == x2 && y1 == y2 {
			c.Set(x1, y1)
		} else {
			c.DrawLine(x1, y1, x2, y2)
		}
		drawn++
	}
	return drawn
}

// Bounds returns the axis-aligned box around points.
func Bounds(points []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	if len(points) == 0 {
		return
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}
