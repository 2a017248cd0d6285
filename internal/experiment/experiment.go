package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

// Source names where a scene comes from: a registered scenario, or a scene
// file with an optional constraint file.
type Source struct {
	Scenario    string
	Size        int
	Scene       string
	Constraints string
}

func (s Source) String() string {
	if s.Scenario != "" {
		return s.Scenario
	}
	return s.Scene
}

// Open builds a fresh scene for src.
func (r *Registry) Open(src Source, cfg *config.Config, logger *log.Logger) (*scene.Scene, error) {
	opts := cfg.SceneOptions()
	if src.Scenario != "" {
		return r.Build(src.Scenario, opts, src.Size)
	}
	if src.Scene == "" {
		return nil, errors.New("experiment: no scenario or scene file given")
	}

	loader := scene.NewLoader(opts, logger)
	if cfg.GeometryDir != "" {
		loader.Geometry = geom.NewDirLoader(cfg.GeometryDir)
	}
	return loader.Load(src.Scene, src.Constraints)
}

type Experiment struct {
	Source    Source
	cfg       *config.Config
	registry  *Registry
	logger    *log.Logger
	simulator *sim.Simulator
	scene     *scene.Scene
}

func New(src Source, cfg *config.Config, registry *Registry, logger *log.Logger) *Experiment {
	if logger == nil {
		logger = log.Default()
	}
	return &Experiment{Source: src, cfg: cfg, registry: registry, logger: logger}
}

// Setup builds the scene and the simulator with the given metrics.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sc, err := e.registry.Open(e.Source, e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.scene = sc
	e.simulator = sim.New(e.logger)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		TimeStep:      e.cfg.TimeStep,
		Duration:      e.cfg.Duration,
		Restitution:   e.cfg.Restitution,
		Tolerance:     e.cfg.Tolerance,
		RecordEvery:   1,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.scene, e.SimConfig())
}

func (e *Experiment) Scene() *scene.Scene { return e.scene }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
