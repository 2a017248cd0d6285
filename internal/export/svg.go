package export

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
)

// ErrBodyMismatch is returned when a frame and the body list disagree.
var ErrBodyMismatch = errors.New("export: frame does not match bodies")

const (
	background = "#0a0a0a"
	groundLine = "#666666"
	fixedFill  = "#444466"
	padding    = 0.1
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

func newBounds() bounds {
	return bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
}

func (b *bounds) add(x, y float64) {
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

// pad widens the box by padding on every side and keeps the aspect ratio
// of a width x height viewport.
func (b *bounds) pad(width, height int) {
	rangeX := math.Max(b.maxX-b.minX, 1)
	rangeY := math.Max(b.maxY-b.minY, 1)
	b.minX -= rangeX * padding
	b.maxX += rangeX * padding
	b.minY -= rangeY * padding
	b.maxY += rangeY * padding

	aspect := float64(width) / float64(height)
	rangeX, rangeY = b.maxX-b.minX, b.maxY-b.minY
	if rangeX/rangeY < aspect {
		grow := (rangeY*aspect - rangeX) / 2
		b.minX, b.maxX = b.minX-grow, b.maxX+grow
	} else {
		grow := (rangeX/aspect - rangeY) / 2
		b.minY, b.maxY = b.minY-grow, b.maxY+grow
	}
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	sx := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	sy := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return sx, sy
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// Palette returns n evenly spaced body colours.
func Palette(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = colorful.Hsv(360*float64(i)/float64(max(n, 1)), 0.6, 0.95).Hex()
	}
	return colors
}

type polygon struct {
	pts   [3]mgl64.Vec3
	depth float64
	fill  string
}

func worldVertex(info storage.BodyInfo, st rigid.State, i int) mgl64.Vec3 {
	return st.COM.Add(st.Orientation.Rotate(info.Vertices[i]))
}

// FrameSVG draws a side view of one frame: x to the right, y up, looking
// down -z. Faces are painted far to near. The ground plane is drawn at y=0.
func FrameSVG(bodies []storage.BodyInfo, frame sim.Frame, width, height int) (string, error) {
	if len(bodies) != len(frame.States) {
		return "", fmt.Errorf("%w: %d bodies, %d states", ErrBodyMismatch, len(bodies), len(frame.States))
	}

	colors := Palette(len(bodies))
	box := newBounds()
	box.add(0, 0)

	var polys []polygon
	for i, info := range bodies {
		st := frame.States[i]
		fill := colors[i]
		if info.Fixed {
			fill = fixedFill
		}
		for _, f := range info.Faces {
			p := polygon{fill: fill}
			for k, vi := range f {
				if vi < 0 || vi >= len(info.Vertices) {
					return "", fmt.Errorf("%w: body %d face index %d", ErrBodyMismatch, i, vi)
				}
				p.pts[k] = worldVertex(info, st, vi)
				p.depth += p.pts[k].Z() / 3
				box.add(p.pts[k].X(), p.pts[k].Y())
			}
			polys = append(polys, p)
		}
	}
	box.pad(width, height)

	sort.SliceStable(polys, func(i, j int) bool { return polys[i].depth < polys[j].depth })

	var sb strings.Builder
	header(&sb, width, height)

	gx0, gy := box.project(box.minX, 0, width, height)
	gx1, _ := box.project(box.maxX, 0, width, height)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-dasharray="4 4"/>
`, gx0, gy, gx1, gy, groundLine)

	sb.WriteString(`<g stroke="#000000" stroke-width="0.5" fill-opacity="0.85">` + "\n")
	for _, p := range polys {
		sb.WriteString(`<polygon points="`)
		for k, v := range p.pts {
			x, y := box.project(v.X(), v.Y(), width, height)
			if k > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		}
		fmt.Fprintf(&sb, `" fill="%s"/>`+"\n", p.fill)
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, `<text x="8" y="16" fill="#cccccc" font-family="monospace" font-size="12">t=%.3f</text>
</svg>`, frame.Time)
	return sb.String(), nil
}

// TrajectorySVG traces the side-view path of one body's centre of mass.
func TrajectorySVG(frames []sim.Frame, body, width, height int, stroke string) string {
	points := make([]mgl64.Vec2, 0, len(frames))
	for _, f := range frames {
		if body < len(f.States) {
			c := f.States[body].COM
			points = append(points, mgl64.Vec2{c.X(), c.Y()})
		}
	}
	if len(points) < 2 {
		return ""
	}

	box := newBounds()
	for _, p := range points {
		box.add(p.X(), p.Y())
	}
	box.pad(width, height)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, p := range points {
		x, y := box.project(p.X(), p.Y(), width, height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
