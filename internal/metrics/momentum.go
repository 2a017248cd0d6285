package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/scene"
)

// TotalMomentum sums the linear momentum of every free body.
func TotalMomentum(s *scene.Scene) mgl64.Vec3 {
	var p mgl64.Vec3
	for _, b := range s.Bodies() {
		p = p.Add(b.Momentum())
	}
	return p
}

// Momentum reports the magnitude of the total linear momentum after the
// last observed step.
type Momentum struct {
	name  string
	value float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(s *scene.Scene, _ scene.StepStats) {
	m.value = TotalMomentum(s).Len()
}

func (m *Momentum) Value() float64 { return m.value }
func (m *Momentum) Reset()         { m.value = 0 }
