package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

// Stability is the fraction of steps in which every body stayed within
// threshold of the origin and kept a finite state.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sc *scene.Scene, _ scene.StepStats) {
	s.samples++
	for _, b := range sc.Bodies() {
		if !b.State().IsValid() || b.COM.Len() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Penetration is the deepest any published vertex sat below the ground.
type Penetration struct {
	name  string
	depth float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "ground_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(sc *scene.Scene, _ scene.StepStats) {
	for _, v := range sc.VertexBuffer() {
		p.depth = math.Max(p.depth, -v.Y())
	}
}

func (p *Penetration) Value() float64 { return p.depth }
func (p *Penetration) Reset()         { p.depth = 0 }

// Default returns the metrics reported by the CLI.
func Default() []sim.Metric {
	return []sim.Metric{
		NewEnergyDrift(),
		NewKineticEnergy(),
		NewMomentum(),
		NewConstraintViolation(),
		NewContacts(),
		NewPenetration(),
		NewStability(1e4),
	}
}
