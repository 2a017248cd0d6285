package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"gopkg.in/yaml.v3"
)

// ErrUnknownParam is returned for a sweep over an unsupported parameter.
var ErrUnknownParam = errors.New("automation: unknown sweep parameter")

// Batch is a YAML file describing independent runs and parameter sweeps.
type Batch struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Workers     int     `yaml:"workers"`
	Save        bool    `yaml:"save"`
	Runs        []Run   `yaml:"runs"`
	Sweeps      []Sweep `yaml:"sweeps"`
}

// Target selects the scene for a run or sweep.
type Target struct {
	Scenario    string `yaml:"scenario"`
	Size        int    `yaml:"size"`
	Scene       string `yaml:"scene"`
	Constraints string `yaml:"constraints"`
}

func (t Target) source() experiment.Source {
	return experiment.Source{Scenario: t.Scenario, Size: t.Size, Scene: t.Scene, Constraints: t.Constraints}
}

// Run is a single run. Zero or nil fields keep the batch configuration.
type Run struct {
	Name        string `yaml:"name"`
	Target      `yaml:",inline"`
	Duration    float64  `yaml:"duration"`
	TimeStep    float64  `yaml:"time_step"`
	Restitution *float64 `yaml:"restitution"`
	MaxDepth    *int     `yaml:"max_depth"`
}

// Sweep repeats one target over evenly spaced values of Param.
type Sweep struct {
	Name     string `yaml:"name"`
	Target   `yaml:",inline"`
	Param    string  `yaml:"param"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Steps    int     `yaml:"steps"`
	Duration float64 `yaml:"duration"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return &b, nil
}

// Values returns the sweep points, Min and Max included.
func (s Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	vals := make([]float64, s.Steps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

func apply(cfg *config.Config, param string, v float64) error {
	switch param {
	case "restitution":
		cfg.Restitution = v
	case "max_depth":
		cfg.MaxDepth = int(math.Round(v))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, param)
	}
	return nil
}

// Task is one expanded job with the configuration it runs under.
type Task struct {
	Name   string
	Source experiment.Source
	Config *config.Config
	// Param and Value are set for sweep points.
	Param string
	Value float64
}

// Expand turns runs and sweeps into tasks, each with its own copy of base.
func (b *Batch) Expand(base *config.Config) ([]Task, error) {
	if b.Preset != "" {
		preset := config.GetPreset(b.Preset)
		if preset == nil {
			return nil, fmt.Errorf("unknown preset: %s", b.Preset)
		}
		preset.DataDir, preset.GeometryDir, preset.LogLevel = base.DataDir, base.GeometryDir, base.LogLevel
		base = preset
	}

	tasks := make([]Task, 0, len(b.Runs))
	for i, r := range b.Runs {
		cfg := *base
		if r.Duration > 0 {
			cfg.Duration = r.Duration
		}
		if r.TimeStep > 0 {
			cfg.TimeStep = r.TimeStep
		}
		if r.Restitution != nil {
			cfg.Restitution = *r.Restitution
		}
		if r.MaxDepth != nil {
			cfg.MaxDepth = *r.MaxDepth
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("run%d_%s", i+1, r.source())
		}
		tasks = append(tasks, Task{Name: name, Source: r.source(), Config: &cfg})
	}

	for i, s := range b.Sweeps {
		for _, v := range s.Values() {
			cfg := *base
			if s.Duration > 0 {
				cfg.Duration = s.Duration
			}
			if err := apply(&cfg, s.Param, v); err != nil {
				return nil, fmt.Errorf("sweep %d: %w", i+1, err)
			}
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("sweep %d: %w", i+1, err)
			}
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("sweep%d_%s", i+1, s.source())
			}
			tasks = append(tasks, Task{
				Name:   fmt.Sprintf("%s_%s=%g", name, s.Param, v),
				Source: s.source(),
				Config: &cfg,
				Param:  s.Param,
				Value:  v,
			})
		}
	}
	return tasks, nil
}

type Outcome struct {
	Task   Task
	Result *sim.Result
	RunID  string
}

type Runner struct {
	Registry *experiment.Registry
	Logger   *log.Logger
	// Store receives every finished run when non-nil.
	Store *storage.Store
}

func (r *Runner) job(t Task, record bool) sim.Job {
	cfg := experiment.New(t.Source, t.Config, r.Registry, r.Logger).SimConfig()
	if !record {
		cfg.RecordEvery = 0
	}
	return sim.Job{
		Name: t.Name,
		Build: func() (*scene.Scene, error) {
			return r.Registry.Open(t.Source, t.Config, r.Logger)
		},
		Config:  cfg,
		Metrics: r.Registry.DefaultMetrics,
	}
}

// Run executes the batch on a worker pool and returns outcomes in task order.
func (r *Runner) Run(ctx context.Context, b *Batch, base *config.Config) ([]Outcome, error) {
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	tasks, err := b.Expand(base)
	if err != nil {
		return nil, err
	}

	save := r.Store != nil && b.Save
	jobs := make([]sim.Job, len(tasks))
	for i, t := range tasks {
		jobs[i] = r.job(t, save)
	}

	r.Logger.Info("batch started", "name", b.Name, "jobs", len(jobs), "workers", b.Workers)
	results, err := sim.NewBatch(sim.New(r.Logger), b.Workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(tasks))
	for i, t := range tasks {
		outcomes[i] = Outcome{Task: t, Result: results[i]}
		if !save {
			continue
		}
		id, err := r.save(t, results[i])
		if err != nil {
			return outcomes, fmt.Errorf("save %s: %w", t.Name, err)
		}
		outcomes[i].RunID = id
	}
	return outcomes, nil
}

func (r *Runner) save(t Task, result *sim.Result) (string, error) {
	// A fresh scene carries the same geometry as the one that ran.
	sc, err := r.Registry.Open(t.Source, t.Config, r.Logger)
	if err != nil {
		return "", err
	}
	meta := storage.RunMetadata{
		Name:        t.Name,
		Scene:       t.Source.String(),
		Constraints: t.Source.Constraints,
		TimeStep:    t.Config.TimeStep,
		Duration:    t.Config.Duration,
		Restitution: t.Config.Restitution,
		Tolerance:   t.Config.Tolerance,
		MaxDepth:    t.Config.MaxDepth,
	}
	return r.Store.Save(meta, sc, result)
}
