package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/scene"
)

// MaxViolation returns the largest current constraint violation.
func MaxViolation(s *scene.Scene) float64 {
	worst := 0.0
	for _, c := range s.Constraints() {
		worst = math.Max(worst, c.Violation(s.Bodies()))
	}
	return worst
}

// ConstraintViolation tracks the worst violation over a run.
type ConstraintViolation struct {
	name  string
	worst float64
}

func NewConstraintViolation() *ConstraintViolation {
	return &ConstraintViolation{name: "constraint_violation"}
}

func (c *ConstraintViolation) Name() string { return c.name }

func (c *ConstraintViolation) Observe(s *scene.Scene, _ scene.StepStats) {
	c.worst = math.Max(c.worst, MaxViolation(s))
}

func (c *ConstraintViolation) Value() float64 { return c.worst }
func (c *ConstraintViolation) Reset()         { c.worst = 0 }
