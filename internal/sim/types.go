package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
)

var (
	// ErrInvalidState indicates a body whose state became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a non-positive time step or duration.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(s *scene.Scene, st scene.StepStats)
	Value() float64
	Reset()
}

// Observer is notified after every step.
type Observer interface {
	OnStep(s *scene.Scene, st scene.StepStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *scene.Scene, st scene.StepStats)

func (f ObserverFunc) OnStep(s *scene.Scene, st scene.StepStats) { f(s, st) }

type Config struct {
	TimeStep    float64
	Duration    float64
	Restitution float64
	Tolerance   float64
	// RecordEvery keeps one frame per this many steps; zero records only
	// the first and last frame.
	RecordEvery   int
	ValidateState bool
}

// Frame is the state of every body at one instant.
type Frame struct {
	Step   int
	Time   float64
	States []rigid.State
}

func capture(s *scene.Scene, step int) Frame {
	snap := s.Snapshot()
	return Frame{Step: step, Time: snap.Time, States: snap.States}
}

// Totals sums step statistics over a run.
type Totals struct {
	Candidates     int
	Contacts       int
	Impulses       int
	GroundContacts int
	PositionFixes  int
	VelocityFixes  int
	DepthCutoffs   int
}

func (t *Totals) add(st scene.StepStats) {
	t.Candidates += st.Candidates
	t.Contacts += st.Contacts
	t.Impulses += st.Impulses
	t.GroundContacts += st.GroundContacts
	t.PositionFixes += st.Constraints.PositionFixes
	t.VelocityFixes += st.Constraints.VelocityFixes
	t.DepthCutoffs += st.Constraints.DepthCutoffs
}

type Result struct {
	Frames     []Frame
	StepsTaken int
	Totals     Totals
	Metrics    map[string]float64
}

// StepError wraps an error with the step and body at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Body    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
