package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/rigidsim/internal/scene"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run. Build is called on the worker goroutine so
// every job owns its scene.
type Job struct {
	Name    string
	Build   func() (*scene.Scene, error)
	Config  Config
	Metrics func() []Metric
}

// Batch runs jobs concurrently, at most Workers at a time. Scenes are never
// shared between goroutines.
type Batch struct {
	Workers int
	base    *Simulator
}

func NewBatch(base *Simulator, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{Workers: workers, base: base}
}

// Run returns results in job order. The first failing job cancels the rest.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			sc, err := job.Build()
			if err != nil {
				return err
			}

			s := New(b.base.logger.With("job", job.Name))
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, sc, job.Config)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
