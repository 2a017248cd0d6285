package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/scene"
)

// Kinetic is the total translational and rotational kinetic energy.
func Kinetic(s *scene.Scene) float64 {
	total := 0.0
	for _, b := range s.Bodies() {
		total += b.KineticEnergy()
	}
	return total
}

// Mechanical adds gravitational potential energy to Kinetic.
func Mechanical(s *scene.Scene) float64 {
	g := s.Options().Gravity
	total := Kinetic(s)
	for _, b := range s.Bodies() {
		total += b.PotentialEnergy(g)
	}
	return total
}

// Energy is the mean mechanical energy over the observed steps.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s *scene.Scene, _ scene.StepStats) {
	e.totalEnergy += Mechanical(s)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// KineticEnergy reports the kinetic energy after the last observed step.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string                              { return k.name }
func (k *KineticEnergy) Observe(s *scene.Scene, _ scene.StepStats) { k.value = Kinetic(s) }
func (k *KineticEnergy) Value() float64                            { return k.value }
func (k *KineticEnergy) Reset()                                    { k.value = 0 }

// EnergyDrift is the largest relative change in mechanical energy seen
// since the first observation.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s *scene.Scene, _ scene.StepStats) {
	energy := Mechanical(s)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
