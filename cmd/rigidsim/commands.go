package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := source(args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(src, cfg, registry, logger)
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return err
	}

	var energy []float64
	if plot {
		exp.GetSimulator().AddObserver(sim.ObserverFunc(func(sc *scene.Scene, _ scene.StepStats) {
			energy = append(energy, metrics.Mechanical(sc))
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "source", src, "bodies", len(exp.Scene().Bodies()), "steps", cfg.Steps())
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)
	if err != nil {
		logger.Warn("run stopped early", "err", err, "steps", result.StepsTaken)
	}

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed)
	if !noSave {
		st := storage.New(cfg.DataDir)
		meta := storage.RunMetadata{
			Name:        runName(src),
			Scene:       src.String(),
			Constraints: src.Constraints,
			TimeStep:    cfg.TimeStep,
			Duration:    cfg.Duration,
			Restitution: cfg.Restitution,
			Tolerance:   cfg.Tolerance,
			MaxDepth:    cfg.MaxDepth,
		}
		runID, err := st.Save(meta, exp.Scene(), result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printTotals(result.Totals)
	printMetrics(result.Metrics)

	if plot && len(energy) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("mechanical energy")))
	}
	return err
}

func runName(src experiment.Source) string {
	if src.Scenario != "" {
		return src.Scenario
	}
	return strings.TrimSuffix(filepath.Base(src.Scene), filepath.Ext(src.Scene))
}

func printTotals(t sim.Totals) {
	fmt.Println("\ntotals:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  candidates\t%d\n", t.Candidates)
	fmt.Fprintf(w, "  contacts\t%d\n", t.Contacts)
	fmt.Fprintf(w, "  impulses\t%d\n", t.Impulses)
	fmt.Fprintf(w, "  ground contacts\t%d\n", t.GroundContacts)
	fmt.Fprintf(w, "  position fixes\t%d\n", t.PositionFixes)
	fmt.Fprintf(w, "  velocity fixes\t%d\n", t.VelocityFixes)
	fmt.Fprintf(w, "  depth cutoffs\t%d\n", t.DepthCutoffs)
	w.Flush()
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := source(args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	sc, err := registry.Open(src, cfg, logger)
	if err != nil {
		return err
	}
	simCfg := experiment.New(src, cfg, registry, logger).SimConfig()
	return viz.Run(viz.NewModel(sc, simCfg, runName(src)))
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tBODIES\tSTEPS\tDT\tE\tDEPTH")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4fs\t%.2f\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Steps,
			run.TimeStep,
			run.Restitution,
			run.MaxDepth,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	runID := args[0]

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(frames))

	bodies := make([]int, 0)
	if bodyIndex >= 0 {
		if bodyIndex >= meta.Bodies {
			return fmt.Errorf("body %d out of range (%d bodies)", bodyIndex, meta.Bodies)
		}
		bodies = append(bodies, bodyIndex)
	} else {
		for i := 0; i < min(meta.Bodies, 4); i++ {
			bodies = append(bodies, i)
		}
	}

	for _, b := range bodies {
		height := make([]float64, len(frames))
		speed := make([]float64, len(frames))
		for i, f := range frames {
			height[i] = f.States[b].COM.Y()
			speed[i] = f.States[b].Velocity.Len()
		}
		fmt.Println(asciigraph.PlotMany([][]float64{height, speed},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
			asciigraph.Caption(fmt.Sprintf("body %d: height (green), speed (yellow)", b)),
		))
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := storage.New(cfg.DataDir).Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]
	data, err := storage.New(cfg.DataDir).Export(runID)
	if err != nil {
		return err
	}
	if len(data.Frames) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	var svg string
	if trajectory >= 0 {
		svg = export.TrajectorySVG(data.Frames, trajectory, 800, 600, export.Palette(1)[0])
		if svg == "" {
			return fmt.Errorf("body %d has no trajectory", trajectory)
		}
	} else {
		idx := frameIndex
		if idx < 0 {
			idx += len(data.Frames)
		}
		if idx < 0 || idx >= len(data.Frames) {
			return fmt.Errorf("frame %d out of range (%d frames)", frameIndex, len(data.Frames))
		}
		if svg, err = export.FrameSVG(data.Bodies, data.Frames[idx], 800, 600); err != nil {
			return err
		}
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func benchStress(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sizes := []int{2, 3, 4}
	if len(args) > 0 {
		sizes = sizes[:0]
		for _, a := range args {
			var n int
			if _, err := fmt.Sscanf(a, "%d", &n); err != nil || n <= 0 {
				return fmt.Errorf("invalid grid size %q", a)
			}
			sizes = append(sizes, n)
		}
	}

	fmt.Printf("benchmarking stress grids, %d steps each\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tBODIES\tCANDIDATES\tCONTACTS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		sc, err := experiment.Stress(cfg.SceneOptions(), n)
		if err != nil {
			return err
		}

		var candidates, contacts int
		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			st := sc.Step(cfg.TimeStep, cfg.Restitution, cfg.Tolerance)
			candidates += st.Candidates
			contacts += st.Contacts + st.GroundContacts
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%.0f\n",
			n, n*n*n, candidates, contacts, elapsed.Round(time.Microsecond), float64(benchSteps)/elapsed.Seconds())
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		batch.Workers = workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &automation.Runner{
		Registry: experiment.NewRegistry(),
		Logger:   logger,
		Store:    storage.New(cfg.DataDir),
	}
	start := time.Now()
	outcomes, err := runner.Run(ctx, batch, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tCONTACTS\tDRIFT\tVIOLATION\tRUN")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			o.Task.Name,
			o.Result.StepsTaken,
			o.Result.Totals.Contacts+o.Result.Totals.GroundContacts,
			metricCell(o.Result.Metrics, "energy_drift"),
			metricCell(o.Result.Metrics, "constraint_violation"),
			o.RunID,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %v\n", len(outcomes), time.Since(start).Round(time.Millisecond))
	return nil
}

func metricCell(m map[string]float64, name string) string {
	v, ok := m[name]
	if !ok || math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

func listScenarios(cmd *cobra.Command, args []string) {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tDESCRIPTION")
	for _, name := range registry.List() {
		s, _ := registry.Get(name)
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, s.DefaultSize, s.Description)
	}
	w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "rigidsim.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
