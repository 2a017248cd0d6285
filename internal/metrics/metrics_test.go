package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
)

func cube(t *testing.T, com mgl64.Vec3, fixed bool) *rigid.Body {
	t.Helper()
	m, _ := geom.Builtin("cube")
	b, err := rigid.New(m, 1, fixed, com, mgl64.QuatIdent())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestMechanicalEnergy(t *testing.T) {
	b := cube(t, mgl64.Vec3{0, 2, 0}, false)
	b.Velocity = mgl64.Vec3{3, 0, 0}
	s := scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions())

	if got := Kinetic(s); math.Abs(got-4.5) > 1e-12 {
		t.Errorf("expected kinetic 4.5, got %f", got)
	}
	if got := Mechanical(s); math.Abs(got-(4.5+9.8*2)) > 1e-12 {
		t.Errorf("expected mechanical %f, got %f", 4.5+9.8*2, got)
	}
}

func TestEnergyDrift_FreeFall(t *testing.T) {
	b := cube(t, mgl64.Vec3{0, 100, 0}, false)
	s := scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions())

	m := NewEnergyDrift()
	for i := 0; i < 50; i++ {
		st := s.Step(0.01, 1, 1e-3)
		m.Observe(s, st)
	}
	// semi-implicit Euler loses a little energy each step
	if v := m.Value(); v <= 0 || v > 0.01 {
		t.Errorf("unexpected drift %f", v)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergy_Mean(t *testing.T) {
	b := cube(t, mgl64.Vec3{0, 1, 0}, true)
	s := scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions())

	m := NewEnergy()
	m.Observe(s, scene.StepStats{})
	m.Observe(s, scene.StepStats{})
	if m.Value() != 0 {
		t.Errorf("fixed bodies carry no energy, got %f", m.Value())
	}
}

func TestMomentum(t *testing.T) {
	a := cube(t, mgl64.Vec3{0, 5, 0}, false)
	b := cube(t, mgl64.Vec3{3, 5, 0}, false)
	a.Velocity = mgl64.Vec3{1, 0, 0}
	b.Velocity = mgl64.Vec3{0, 0, 2}
	s := scene.New([]*rigid.Body{a, b}, nil, scene.DefaultOptions())

	m := NewMomentum()
	m.Observe(s, scene.StepStats{})
	if math.Abs(m.Value()-math.Sqrt(5)) > 1e-12 {
		t.Errorf("expected sqrt(5), got %f", m.Value())
	}
}

func TestConstraintViolation(t *testing.T) {
	a := cube(t, mgl64.Vec3{0, 5, 0}, true)
	b := cube(t, mgl64.Vec3{2, 5, 0}, false)
	bodies := []*rigid.Body{a, b}
	c, err := constraint.New(bodies, constraint.Attachment{Body: 0}, constraint.Attachment{Body: 1}, constraint.Equality, false, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	s := scene.New(bodies, []constraint.Constraint{c}, scene.DefaultOptions())

	m := NewConstraintViolation()
	m.Observe(s, scene.StepStats{})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestContacts(t *testing.T) {
	m := NewContacts()
	m.Observe(nil, scene.StepStats{Contacts: 2, GroundContacts: 1})
	m.Observe(nil, scene.StepStats{Contacts: 0, GroundContacts: 1})
	if m.Value() != 2 {
		t.Errorf("expected mean 2, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	b := cube(t, mgl64.Vec3{0, 1, 0}, false)
	s := scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions())

	m := NewStability(10)
	m.Observe(s, scene.StepStats{})
	b.COM = mgl64.Vec3{20, 0, 0}
	m.Observe(s, scene.StepStats{})
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestPenetration(t *testing.T) {
	b := cube(t, mgl64.Vec3{0, 0.3, 0}, false)
	s := scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions())

	m := NewPenetration()
	m.Observe(s, scene.StepStats{})
	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected 0.2 before stepping, got %f", m.Value())
	}

	m.Reset()
	m.Observe(s, s.Step(0.01, 0, 1e-3))
	if m.Value() > 1e-9 {
		t.Errorf("expected no penetration after a step, got %f", m.Value())
	}
}
