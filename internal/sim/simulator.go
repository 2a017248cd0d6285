package sim

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/rigidsim/internal/scene"
)

type Simulator struct {
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

func New(logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.Default()
	}
	return &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run steps sc for cfg.Duration. The context is checked between steps; on
// cancellation the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context, sc *scene.Scene, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.TimeStep + 1e-9)
	result := &Result{
		Frames:  make([]Frame, 0, 2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Frames = append(result.Frames, capture(sc, 0))
	s.logger.Debug("run started", "steps", steps, "dt", cfg.TimeStep, "bodies", len(sc.Bodies()))

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		st := sc.Step(cfg.TimeStep, cfg.Restitution, cfg.Tolerance)
		result.StepsTaken++
		result.Totals.add(st)

		for _, m := range s.metrics {
			m.Observe(sc, st)
		}
		for _, o := range s.observers {
			o.OnStep(sc, st)
		}

		if cfg.ValidateState {
			if err := validate(sc, i+1); err != nil {
				s.logger.Warn("run diverged", "err", err)
				runErr = err
				break
			}
		}

		if cfg.RecordEvery > 0 && (i+1)%cfg.RecordEvery == 0 {
			result.Frames = append(result.Frames, capture(sc, i+1))
		}
	}

	if last := result.Frames[len(result.Frames)-1]; last.Step != result.StepsTaken {
		result.Frames = append(result.Frames, capture(sc, result.StepsTaken))
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		"steps", result.StepsTaken,
		"contacts", result.Totals.Contacts,
		"ground", result.Totals.GroundContacts,
	)
	return result, runErr
}

// RunWithCallback steps until the duration elapses or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, sc *scene.Scene, cfg Config, callback func(*scene.Scene, scene.StepStats) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	steps := int(cfg.Duration/cfg.TimeStep + 1e-9)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		st := sc.Step(cfg.TimeStep, cfg.Restitution, cfg.Tolerance)
		if cfg.ValidateState {
			if err := validate(sc, i+1); err != nil {
				return err
			}
		}
		if !callback(sc, st) {
			return nil
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.TimeStep <= 0 {
		return fmt.Errorf("%w: time step must be positive, got %f", ErrInvalidConfig, cfg.TimeStep)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

func validate(sc *scene.Scene, step int) error {
	for i, b := range sc.Bodies() {
		if !b.State().IsValid() {
			return &StepError{Step: step, Time: sc.Time(), Body: i, Wrapped: ErrInvalidState}
		}
	}
	return nil
}
