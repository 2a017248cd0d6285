package sim

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func newDrop() (*scene.Scene, error) {
	m, _ := geom.Builtin("cube")
	b, err := rigid.New(m, 1, false, mgl64.Vec3{0, 3, 0}, mgl64.QuatIdent())
	if err != nil {
		return nil, err
	}
	return scene.New([]*rigid.Body{b}, nil, scene.DefaultOptions()), nil
}

func dropScene(t *testing.T) *scene.Scene {
	t.Helper()
	sc, err := newDrop()
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestSimulatorRun(t *testing.T) {
	sim := New(quiet())
	cfg := Config{TimeStep: 0.1, Duration: 1.0, Restitution: 1, Tolerance: 1e-3, RecordEvery: 1}

	result, err := sim.Run(context.Background(), dropScene(t), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Frames) != 11 {
		t.Errorf("expected 11 frames, got %d", len(result.Frames))
	}
	last := result.Frames[len(result.Frames)-1]
	if math.Abs(last.Time-1.0) > 1e-9 {
		t.Errorf("expected final time 1.0, got %f", last.Time)
	}
	if last.States[0].COM.Y() >= 3 {
		t.Error("body should have fallen")
	}
}

func TestSimulatorRun_SparseFrames(t *testing.T) {
	sim := New(quiet())
	cfg := Config{TimeStep: 0.1, Duration: 1.05, Restitution: 1}

	result, err := sim.Run(context.Background(), dropScene(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Frames) != 2 {
		t.Fatalf("expected first and last frames, got %d", len(result.Frames))
	}
	if result.Frames[1].Step != 10 {
		t.Errorf("expected last frame at step 10, got %d", result.Frames[1].Step)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(quiet())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{TimeStep: 0, Duration: 1.0}},
		{"negative dt", Config{TimeStep: -0.1, Duration: 1.0}},
		{"zero duration", Config{TimeStep: 0.1, Duration: 0}},
		{"negative duration", Config{TimeStep: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), dropScene(t), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(quiet()).Run(ctx, dropScene(t), Config{TimeStep: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", result.StepsTaken)
	}
}

type testMetric struct {
	count int
}

func (t *testMetric) Name() string                               { return "test" }
func (t *testMetric) Observe(s *scene.Scene, st scene.StepStats) { t.count++ }
func (t *testMetric) Value() float64                             { return float64(t.count) }
func (t *testMetric) Reset()                                     { t.count = 0 }

func TestSimulatorMetricsAndObservers(t *testing.T) {
	sim := New(quiet())
	metric := &testMetric{}
	sim.AddMetric(metric)

	var times []float64
	sim.AddObserver(ObserverFunc(func(s *scene.Scene, st scene.StepStats) {
		times = append(times, s.Time())
	}))

	result, err := sim.Run(context.Background(), dropScene(t), Config{TimeStep: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Metrics["test"] != 10 {
		t.Errorf("expected 10 observations, got %f", result.Metrics["test"])
	}
	if len(times) != 10 {
		t.Errorf("expected 10 observer calls, got %d", len(times))
	}
}

func TestSimulatorValidateState(t *testing.T) {
	sc := dropScene(t)
	sc.Bodies()[0].Velocity = mgl64.Vec3{math.Inf(1), 0, 0}

	_, err := New(quiet()).Run(context.Background(), sc, Config{TimeStep: 0.1, Duration: 1, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 1 {
		t.Errorf("expected StepError at step 1, got %v", err)
	}
}

func TestRunWithCallback_Stops(t *testing.T) {
	calls := 0
	err := New(quiet()).RunWithCallback(context.Background(), dropScene(t), Config{TimeStep: 0.1, Duration: 1},
		func(s *scene.Scene, st scene.StepStats) bool {
			calls++
			return calls < 3
		})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 callbacks, got %d", calls)
	}
}

func TestBatch(t *testing.T) {
	var jobs []Job
	for _, e := range []float64{0, 0.5, 1} {
		jobs = append(jobs, Job{
			Name:    "drop",
			Build:   newDrop,
			Config:  Config{TimeStep: 0.02, Duration: 1, Restitution: e},
			Metrics: func() []Metric { return []Metric{&testMetric{}} },
		})
	}

	results, err := NewBatch(New(quiet()), 2).Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 50 || r.Metrics["test"] != 50 {
			t.Errorf("job %d: unexpected result %+v", i, r)
		}
	}

	jobs = append(jobs, Job{Name: "broken", Build: func() (*scene.Scene, error) { return nil, errors.New("boom") }})
	if _, err := NewBatch(New(quiet()), 2).Run(context.Background(), jobs); err == nil {
		t.Error("expected error from failing job")
	}
}
