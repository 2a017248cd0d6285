package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

// ErrUnknownScenario is returned for a name with no registered builder.
var ErrUnknownScenario = errors.New("experiment: unknown scenario")

// Builder constructs a fresh scene. size scales the scenario (stack height,
// chain length, grid edge); zero selects the scenario default.
type Builder func(opts scene.Options, size int) (*scene.Scene, error)

type Scenario struct {
	Name        string
	Description string
	DefaultSize int
	Build       Builder
}

type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}

	r.Register(Scenario{Name: "drop", Description: "tilted cube falling onto the ground", Build: Drop})
	r.Register(Scenario{Name: "stack", Description: "column of cubes settling", DefaultSize: 3, Build: Stack})
	r.Register(Scenario{Name: "chain", Description: "cubes hanging from a fixed anchor", DefaultSize: 4, Build: Chain})
	r.Register(Scenario{Name: "collide", Description: "head-on pair in mid air", Build: Collide})
	r.Register(Scenario{Name: "stress", Description: "n x n x n grid of heavy cubes", DefaultSize: 5, Build: Stress})

	return r
}

func (r *Registry) Register(s Scenario) {
	r.scenarios[s.Name] = s
}

func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}

// Build constructs the named scenario.
func (r *Registry) Build(name string, opts scene.Options, size int) (*scene.Scene, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = s.DefaultSize
	}
	sc, err := s.Build(opts, size)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return sc, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh metric set for one run.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Default()
}
