package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	dt          float64
	duration    float64
	restitution float64
	maxDepth    int
	scenario    string
	size        int
	plot        bool
	noSave      bool
	outFile     string
	frameIndex  int
	trajectory  int
	bodyIndex   int
	workers     int
	benchSteps  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rigidsim",
		Short:         "rigid body simulation with contacts and distance constraints",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return viz.Run(viz.NewPicker(experiment.NewRegistry(), cfg))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [scene] [constraints]",
		Short: "run a simulation and save it",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot energy after the run")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [scene] [constraints]",
		Short: "run a simulation in the terminal viewer",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body heights and speeds of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIndex, "body", -1, "plot a single body")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a frame of a run as an SVG side view",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index, negative counts from the end")
	exportSVGCmd.Flags().IntVar(&trajectory, "trajectory", -1, "trace the path of this body instead")

	benchCmd := &cobra.Command{
		Use:   "bench [n...]",
		Short: "benchmark n x n x n stress grids",
		RunE:  benchStress,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "steps per grid")

	batchCmd := &cobra.Command{
		Use:   "batch [file.yaml]",
		Short: "run a YAML batch of runs and sweeps",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "worker count (default from file, then CPU count)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		Run:   listScenarios,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd,
		benchCmd, batchCmd, presetsCmd, scenariosCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scenario, "scenario", "", "built-in scenario instead of scene files")
	cmd.Flags().IntVar(&size, "size", 0, "scenario size (0 for its default)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimeStep, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&restitution, "restitution", config.DefaultRestitution, "coefficient of restitution")
	cmd.Flags().IntVar(&maxDepth, "depth", config.DefaultMaxDepth, "constraint propagation depth")
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order, and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.TimeStep = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("restitution") {
		cfg.Restitution = restitution
	}
	if flags.Changed("depth") {
		cfg.MaxDepth = maxDepth
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		Prefix:          "rigidsim",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

// source picks the scene from --scenario or positional scene files.
func source(args []string) (experiment.Source, error) {
	switch {
	case scenario != "" && len(args) > 0:
		return experiment.Source{}, fmt.Errorf("give either --scenario or scene files, not both")
	case scenario != "":
		return experiment.Source{Scenario: scenario, Size: size}, nil
	case len(args) == 0:
		return experiment.Source{}, fmt.Errorf("no scene given (pass a scene file or --scenario)")
	}
	src := experiment.Source{Scene: args[0]}
	if len(args) > 1 {
		src.Constraints = args[1]
	}
	return src, nil
}
